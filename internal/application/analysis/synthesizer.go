package analysis

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/storelens/internal/application"
	domain "github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

const (
	maxInsights        = 5
	maxRecommendations = 10
	titleRunes         = 60
)

// urgencyPrefixes mark a recommendation as high priority only when they
// open the line, so "not urgent" stays at the section default.
var urgencyPrefixes = []string{"فوری:", "urgent:", "immediately:", "immediate:"}

// default sales impact (percent) when a recommendation states none
var defaultImpact = map[domain.SectionKind]float64{
	domain.SectionCurrentCondition: 5,
	domain.SectionSales:            8,
	domain.SectionCustomerFlow:     7,
	domain.SectionDesign:           4,
	domain.SectionLayoutProposal:   6,
	domain.SectionFinancial:        3,
}

var sectionPriority = map[domain.SectionKind]domain.Priority{
	domain.SectionCurrentCondition: domain.PriorityHigh,
	domain.SectionLayoutProposal:   domain.PriorityHigh,
	domain.SectionSales:            domain.PriorityMedium,
	domain.SectionCustomerFlow:     domain.PriorityMedium,
	domain.SectionDesign:           domain.PriorityMedium,
	domain.SectionFinancial:        domain.PriorityLow,
}

// DefaultWeights gives every section the same weight.
func DefaultWeights() map[domain.SectionKind]float64 {
	w := make(map[domain.SectionKind]float64, len(domain.SectionKinds))
	for _, k := range domain.SectionKinds {
		w[k] = 1
	}
	return w
}

// SynthesisInput is everything the synthesizer needs for one report.
type SynthesisInput struct {
	TenantID   string
	Profile    store.StoreProfile
	Tier       store.Tier
	Sections   []domain.SectionResult
	Panel      domain.PanelResult
	Confidence domain.ConfidenceScore
	Warnings   []media.Warning
}

// Synthesizer merges section results and panel output into one report.
type Synthesizer struct {
	Weights map[domain.SectionKind]float64
	Clock   application.Clock
	NewID   func() string
}

func NewSynthesizer(weights map[domain.SectionKind]float64, clock application.Clock) *Synthesizer {
	if len(weights) == 0 {
		weights = DefaultWeights()
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Synthesizer{Weights: weights, Clock: clock, NewID: uuid.NewString}
}

// Build returns a new report; it never edits an existing one.
func (s *Synthesizer) Build(in SynthesisInput) *domain.AnalysisReport {
	scores := make(map[domain.SectionKind]float64, len(in.Sections))
	for _, sec := range in.Sections {
		scores[sec.Kind] = round1(sec.Confidence * 100)
	}

	recs := s.recommendations(in.Sections)
	sections := append([]domain.SectionResult(nil), in.Sections...)

	return &domain.AnalysisReport{
		ID:              domain.ReportID(s.NewID()),
		TenantID:        in.TenantID,
		StoreID:         in.Profile.ID,
		StoreName:       in.Profile.Name,
		Tier:            in.Tier,
		OverallScore:    OverallScore(in.Sections, s.Weights),
		SectionScores:   scores,
		Sections:        sections,
		Panel:           in.Panel,
		Insights:        insights(in.Sections),
		Recommendations: recs,
		Timeline:        timeline(recs),
		Financial:       projection(in.Sections, in.Confidence),
		Confidence:      in.Confidence,
		Warnings:        append([]media.Warning(nil), in.Warnings...),
		Caveat:          in.Confidence.Caveat,
		CreatedAt:       s.Clock.Now(),
	}
}

// OverallScore is the weighted mean of section confidences on a 0-100 scale.
// Weights are normalized over the sections actually present, so a missing
// section redistributes its weight instead of counting as zero.
func OverallScore(sections []domain.SectionResult, weights map[domain.SectionKind]float64) float64 {
	var sum, sumW float64
	seen := map[domain.SectionKind]bool{}
	for _, sec := range sections {
		if seen[sec.Kind] {
			continue
		}
		seen[sec.Kind] = true
		w, ok := weights[sec.Kind]
		if !ok {
			w = 1
		}
		if w <= 0 {
			continue
		}
		sum += w * clamp(sec.Confidence, 0, 1)
		sumW += w
	}
	if sumW <= 0 {
		return 50
	}
	return round1(sum / sumW * 100)
}

// insights takes strengths and weaknesses round-robin across sections so
// that one verbose section cannot fill the whole list.
func insights(sections []domain.SectionResult) []domain.Insight {
	perSection := make([][]domain.Insight, 0, len(sections))
	for _, sec := range sections {
		p := parseText(sec.Text)
		var list []domain.Insight
		n := len(p.strengths)
		if len(p.weaknesses) > n {
			n = len(p.weaknesses)
		}
		for i := 0; i < n; i++ {
			if i < len(p.strengths) {
				list = append(list, domain.Insight{Kind: domain.InsightStrength, Text: p.strengths[i], Section: sec.Kind})
			}
			if i < len(p.weaknesses) {
				list = append(list, domain.Insight{Kind: domain.InsightWeakness, Text: p.weaknesses[i], Section: sec.Kind})
			}
		}
		perSection = append(perSection, list)
	}

	out := make([]domain.Insight, 0, maxInsights)
	for round := 0; len(out) < maxInsights; round++ {
		added := false
		for _, list := range perSection {
			if round < len(list) && len(out) < maxInsights {
				out = append(out, list[round])
				added = true
			}
		}
		if !added {
			break
		}
	}
	return out
}

func (s *Synthesizer) recommendations(sections []domain.SectionResult) []domain.Recommendation {
	var out []domain.Recommendation
	seen := map[string]bool{}
	for _, sec := range sections {
		for _, line := range parseText(sec.Text).recommendations {
			key := strings.ToLower(line)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, newRecommendation(sec.Kind, line))
		}
	}

	if len(out) == 0 {
		for _, sec := range sections {
			out = append(out, newRecommendation(sec.Kind, defaultAdvice[sec.Kind]))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.Rank() != out[j].Priority.Rank() {
			return out[i].Priority.Rank() < out[j].Priority.Rank()
		}
		return out[i].SalesImpact > out[j].SalesImpact
	})
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

func newRecommendation(kind domain.SectionKind, line string) domain.Recommendation {
	priority, ok := sectionPriority[kind]
	if !ok {
		priority = domain.PriorityMedium
	}
	if _, urgent := cutUrgency(line); urgent {
		priority = domain.PriorityHigh
	}
	impact, ok := firstPercent(line)
	if !ok {
		impact = defaultImpact[kind]
	}
	return domain.Recommendation{
		Title:       recommendationTitle(line),
		Description: line,
		Priority:    priority,
		SalesImpact: impact,
		Section:     kind,
	}
}

// cutUrgency strips a leading urgency prefix, ignoring ASCII case.
func cutUrgency(line string) (string, bool) {
	t := strings.TrimSpace(line)
	lower := strings.ToLower(t)
	for _, p := range urgencyPrefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(t[len(p):]), true
		}
	}
	return t, false
}

// recommendationTitle drops the urgency prefix and keeps the first clause.
func recommendationTitle(line string) string {
	t, _ := cutUrgency(line)
	cut := len(t)
	for _, sep := range []string{"؛", ";", "(", ". "} {
		if i := strings.Index(t, sep); i > 0 && i < cut {
			cut = i
		}
	}
	t = strings.TrimSuffix(strings.TrimSpace(t[:cut]), ".")
	return shorten(t, titleRunes)
}

func timeline(recs []domain.Recommendation) domain.Timeline {
	tl := domain.Timeline{Immediate: []string{}, MediumTerm: []string{}, LongTerm: []string{}}
	for _, r := range recs {
		switch r.Priority {
		case domain.PriorityHigh:
			tl.Immediate = append(tl.Immediate, r.Title)
		case domain.PriorityMedium:
			tl.MediumTerm = append(tl.MediumTerm, r.Title)
		default:
			tl.LongTerm = append(tl.LongTerm, r.Title)
		}
	}
	return tl
}

// projection derives ROI and payback. Only a remote financial section with
// parsable figures yields a store-specific estimate; everything else is
// labeled as an industry average.
func projection(sections []domain.SectionResult, conf domain.ConfidenceScore) domain.FinancialProjection {
	var fin *domain.SectionResult
	for i := range sections {
		if sections[i].Kind == domain.SectionFinancial {
			fin = &sections[i]
			break
		}
	}

	roi, payback := IndustryROI, IndustryPaybackMonths
	basis := domain.BasisIndustryAverage
	narrative := ""
	if fin != nil {
		narrative = financialNarrative(fin.Text)
		if fin.Provenance == domain.ProvenanceRemote {
			r, rok := parseROI(fin.Text)
			p, pok := parsePayback(fin.Text)
			switch {
			case rok && pok:
				roi, payback, basis = r, p, domain.BasisStoreSpecific
			case rok:
				roi, payback, basis = r, 1200/r, domain.BasisStoreSpecific
			case pok:
				roi, payback, basis = 1200/p, p, domain.BasisStoreSpecific
			}
		}
	}

	width := 0.1 + 0.4*(1-clamp(conf.Aggregate, 0, 1))
	label := "store-specific estimate (برآورد اختصاصی این فروشگاه)"
	if basis == domain.BasisIndustryAverage {
		label = "industry-average estimate (برآورد بر اساس میانگین صنعت، نه داده‌های این فروشگاه)"
	}
	return domain.FinancialProjection{
		ROIPercent:    round1(roi),
		ROILow:        round1(roi * (1 - width)),
		ROIHigh:       round1(roi * (1 + width)),
		PaybackMonths: round1(payback),
		PaybackLow:    round1(payback * (1 - width)),
		PaybackHigh:   round1(payback * (1 + width)),
		Basis:         basis,
		Label:         label,
		Narrative:     narrative,
	}
}

// financialNarrative keeps the prose of the financial section without headings.
func financialNarrative(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ">") {
			continue
		}
		parts = append(parts, strings.TrimSpace(bulletRe.ReplaceAllString(line, "")))
	}
	return shorten(strings.Join(parts, " "), 600)
}
