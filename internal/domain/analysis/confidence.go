package analysis

// Category is an input category scored by the completeness validator.
type Category string

const (
	CategorySales   Category = "sales"
	CategoryLayout  Category = "layout"
	CategoryTraffic Category = "traffic"
	CategoryVisuals Category = "visuals"
)

// Categories in the order they are reported.
var Categories = []Category{CategorySales, CategoryLayout, CategoryTraffic, CategoryVisuals}

// ConfidenceScore reflects how much input was supplied, not how good the
// model output is. Computed once per run, read-only afterwards.
type ConfidenceScore struct {
	Categories map[Category]float64 `json:"categories"`
	Aggregate  float64              `json:"aggregate"`
	Missing    []Category           `json:"missing"`
	Caveat     string               `json:"caveat,omitempty"`
}

// Partial reports whether any category was missing.
func (c ConfidenceScore) Partial() bool { return len(c.Missing) > 0 }

// Percent is the aggregate on a 0-100 scale.
func (c ConfidenceScore) Percent() int {
	return int(c.Aggregate*100 + 0.5)
}
