package analysis

import (
	"time"

	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

// ReportID identifier type
type ReportID string

// Priority of a recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, high first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

type Recommendation struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority"`
	SalesImpact float64     `json:"sales_impact_percent"`
	Section     SectionKind `json:"section"`
}

type InsightKind string

const (
	InsightStrength InsightKind = "strength"
	InsightWeakness InsightKind = "weakness"
)

type Insight struct {
	Kind    InsightKind `json:"kind"`
	Text    string      `json:"text"`
	Section SectionKind `json:"section"`
}

// Timeline groups recommendation titles into execution phases.
type Timeline struct {
	Immediate  []string `json:"immediate"`
	MediumTerm []string `json:"medium_term"`
	LongTerm   []string `json:"long_term"`
}

const (
	BasisStoreSpecific   = "store_specific"
	BasisIndustryAverage = "industry_average"
)

type FinancialProjection struct {
	ROIPercent    float64 `json:"roi_percent"`
	ROILow        float64 `json:"roi_low"`
	ROIHigh       float64 `json:"roi_high"`
	PaybackMonths float64 `json:"payback_months"`
	PaybackLow    float64 `json:"payback_low"`
	PaybackHigh   float64 `json:"payback_high"`
	Basis         string  `json:"basis"`
	Label         string  `json:"label"`
	Narrative     string  `json:"narrative"`
}

// AnalysisReport is the immutable output of one completed run. A later run
// for the same store produces a new report instead of editing this one.
type AnalysisReport struct {
	ID              ReportID                `json:"id"`
	TenantID        string                  `json:"tenant_id"`
	StoreID         string                  `json:"store_id"`
	StoreName       string                  `json:"store_name"`
	Tier            store.Tier              `json:"tier"`
	OverallScore    float64                 `json:"overall_score"`
	SectionScores   map[SectionKind]float64 `json:"section_scores"`
	Sections        []SectionResult         `json:"sections"`
	Panel           PanelResult             `json:"panel"`
	Insights        []Insight               `json:"insights"`
	Recommendations []Recommendation        `json:"recommendations"`
	Timeline        Timeline                `json:"timeline"`
	Financial       FinancialProjection     `json:"financial"`
	Confidence      ConfidenceScore         `json:"confidence"`
	Warnings        []media.Warning         `json:"warnings,omitempty"`
	Caveat          string                  `json:"caveat,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// Section returns the result for kind, if present.
func (r *AnalysisReport) Section(kind SectionKind) (SectionResult, bool) {
	for _, s := range r.Sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return SectionResult{}, false
}

// CountByProvenance counts sections with the given provenance.
func (r *AnalysisReport) CountByProvenance(p Provenance) int {
	n := 0
	for _, s := range r.Sections {
		if s.Provenance == p {
			n++
		}
	}
	return n
}
