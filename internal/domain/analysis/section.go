package analysis

import "time"

// SectionKind is one of the six fixed analysis topics.
type SectionKind string

const (
	SectionCurrentCondition SectionKind = "current_condition"
	SectionSales            SectionKind = "sales"
	SectionCustomerFlow     SectionKind = "customer_flow"
	SectionDesign           SectionKind = "design"
	SectionLayoutProposal   SectionKind = "layout_proposal"
	SectionFinancial        SectionKind = "financial"
)

// SectionKinds in weight order.
var SectionKinds = []SectionKind{
	SectionCurrentCondition,
	SectionSales,
	SectionCustomerFlow,
	SectionDesign,
	SectionLayoutProposal,
	SectionFinancial,
}

var sectionTitles = map[SectionKind]string{
	SectionCurrentCondition: "تحلیل وضعیت فعلی",
	SectionSales:            "تحلیل فروش",
	SectionCustomerFlow:     "تحلیل جریان مشتری",
	SectionDesign:           "تحلیل طراحی و نورپردازی",
	SectionLayoutProposal:   "پیشنهاد چیدمان",
	SectionFinancial:        "تحلیل مالی و بازگشت سرمایه",
}

// Title is the display heading used in prompts and exports.
func (k SectionKind) Title() string {
	if t, ok := sectionTitles[k]; ok {
		return t
	}
	return string(k)
}

func (k SectionKind) Valid() bool {
	_, ok := sectionTitles[k]
	return ok
}

// Index is the position in SectionKinds, or -1.
func (k SectionKind) Index() int {
	for i, s := range SectionKinds {
		if s == k {
			return i
		}
	}
	return -1
}

// Provenance tells where a section's text came from.
type Provenance string

const (
	ProvenanceRemote   Provenance = "remote"
	ProvenanceFallback Provenance = "fallback"
)

// SectionResult is created once and never edited; a retry makes a new one.
type SectionResult struct {
	Kind       SectionKind `json:"kind"`
	Text       string      `json:"text"`
	Provenance Provenance  `json:"provenance"`
	Confidence float64     `json:"confidence"`
	Model      string      `json:"model,omitempty"`
	ErrorKind  string      `json:"error_kind,omitempty"` // why the remote call was replaced
	CreatedAt  time.Time   `json:"created_at"`
}
