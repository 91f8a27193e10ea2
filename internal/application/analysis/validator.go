package analysis

import (
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

// Thresholds are the per-category confidence values. Only their ordering
// (present > partial > missing) is a contract; the numbers are tunable.
type Thresholds struct {
	SalesPresent   float64 `yaml:"sales_present"`
	SalesMissing   float64 `yaml:"sales_missing"`
	LayoutPresent  float64 `yaml:"layout_present"`
	LayoutMissing  float64 `yaml:"layout_missing"`
	TrafficVideo   float64 `yaml:"traffic_video"`
	TrafficMetrics float64 `yaml:"traffic_metrics"`
	TrafficMissing float64 `yaml:"traffic_missing"`
	VisualsPresent float64 `yaml:"visuals_present"`
	VisualsPartial float64 `yaml:"visuals_partial"`
	VisualsMissing float64 `yaml:"visuals_missing"`
	MinImages      int     `yaml:"min_images"`
	EmptyDefault   float64 `yaml:"empty_default"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SalesPresent:   0.9,
		SalesMissing:   0.3,
		LayoutPresent:  0.85,
		LayoutMissing:  0.4,
		TrafficVideo:   0.9,
		TrafficMetrics: 0.8,
		TrafficMissing: 0.3,
		VisualsPresent: 0.9,
		VisualsPartial: 0.5,
		VisualsMissing: 0.2,
		MinImages:      3,
		EmptyDefault:   0.5,
	}
}

// Check returns an error if the ordering contract is broken.
func (t Thresholds) Check() error {
	pairs := []struct {
		name      string
		high, low float64
	}{
		{"sales", t.SalesPresent, t.SalesMissing},
		{"layout", t.LayoutPresent, t.LayoutMissing},
		{"traffic metrics", t.TrafficMetrics, t.TrafficMissing},
		{"traffic video", t.TrafficVideo, t.TrafficMetrics},
		{"visuals", t.VisualsPresent, t.VisualsPartial},
		{"visuals partial", t.VisualsPartial, t.VisualsMissing},
	}
	for _, p := range pairs {
		if p.high < p.low {
			return fmt.Errorf("threshold %s: %.2f must not be below %.2f", p.name, p.high, p.low)
		}
	}
	for _, v := range []float64{t.SalesPresent, t.LayoutPresent, t.TrafficVideo, t.VisualsPresent, t.EmptyDefault} {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %.2f outside [0,1]", v)
		}
	}
	if t.MinImages < 1 {
		return fmt.Errorf("min_images must be at least 1")
	}
	return nil
}

// Validator computes input completeness. Pure function of its input; it never fails.
type Validator struct {
	T Thresholds
}

func NewValidator(t Thresholds) *Validator {
	return &Validator{T: t}
}

func (v *Validator) Assess(p store.StoreProfile) domain.ConfidenceScore {
	t := v.T
	if p.IsEmpty() {
		cats := map[domain.Category]float64{}
		for _, c := range domain.Categories {
			cats[c] = t.EmptyDefault
		}
		score := domain.ConfidenceScore{
			Categories: cats,
			Aggregate:  t.EmptyDefault,
			Missing:    append([]domain.Category(nil), domain.Categories...),
		}
		score.Caveat = caveat(score)
		return score
	}

	cats := map[domain.Category]float64{}
	var missing []domain.Category

	if (p.DailySales != nil || p.MonthlySales != nil) && len(nonBlank(p.ProductCategories)) > 0 {
		cats[domain.CategorySales] = t.SalesPresent
	} else {
		cats[domain.CategorySales] = t.SalesMissing
		missing = append(missing, domain.CategorySales)
	}

	if (p.Length != nil && p.Width != nil) || strings.TrimSpace(p.LayoutDescription) != "" {
		cats[domain.CategoryLayout] = t.LayoutPresent
	} else {
		cats[domain.CategoryLayout] = t.LayoutMissing
		missing = append(missing, domain.CategoryLayout)
	}

	switch {
	case len(p.Videos()) > 0:
		cats[domain.CategoryTraffic] = t.TrafficVideo
	case p.DailyCustomers != nil && p.AvgDwellMinutes != nil:
		cats[domain.CategoryTraffic] = t.TrafficMetrics
	default:
		cats[domain.CategoryTraffic] = t.TrafficMissing
		missing = append(missing, domain.CategoryTraffic)
	}

	switch n := len(p.Images()); {
	case n >= t.MinImages:
		cats[domain.CategoryVisuals] = t.VisualsPresent
	case n > 0:
		cats[domain.CategoryVisuals] = t.VisualsPartial
		missing = append(missing, domain.CategoryVisuals)
	default:
		cats[domain.CategoryVisuals] = t.VisualsMissing
		missing = append(missing, domain.CategoryVisuals)
	}

	sum := 0.0
	for _, c := range domain.Categories {
		sum += cats[c]
	}
	score := domain.ConfidenceScore{
		Categories: cats,
		Aggregate:  sum / float64(len(domain.Categories)),
		Missing:    missing,
	}
	score.Caveat = caveat(score)
	return score
}

var missingLabels = map[domain.Category]string{
	domain.CategorySales:   "sales figures and product categories",
	domain.CategoryLayout:  "store dimensions or layout description",
	domain.CategoryTraffic: "store video or customer traffic metrics",
	domain.CategoryVisuals: "at least three store photos",
}

// caveat discloses partial data; empty when nothing is missing.
func caveat(c domain.ConfidenceScore) string {
	if !c.Partial() {
		return ""
	}
	parts := make([]string, 0, len(c.Missing))
	for _, m := range c.Missing {
		parts = append(parts, missingLabels[m])
	}
	return fmt.Sprintf("analysis performed on partial data, confidence %d%% (missing: %s)",
		c.Percent(), strings.Join(parts, ", "))
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
