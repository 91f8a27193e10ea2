package analysis

import "time"

// Persona identifies a member of the fixed expert panel.
type Persona string

const (
	PersonaMarketing  Persona = "marketing_strategist"
	PersonaLayout     Persona = "layout_designer"
	PersonaOperations Persona = "operations_manager"
	PersonaBehavior   Persona = "customer_behavior_specialist"
	PersonaSales      Persona = "sales_optimizer"
)

// PersonaSpec is a configuration record for one panel member.
type PersonaSpec struct {
	ID        Persona       `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Specialty string        `json:"specialty" yaml:"specialty"`
	Focus     []SectionKind `json:"focus" yaml:"focus"`
	Weight    float64       `json:"weight" yaml:"weight"`
}

// DefaultPersonas returns the five-member roster.
func DefaultPersonas() []PersonaSpec {
	return []PersonaSpec{
		{
			ID:        PersonaMarketing,
			Name:      "استراتژیست بازاریابی",
			Specialty: "جایگاه برند، تبلیغات داخل فروشگاه و جذب مشتری",
			Focus:     []SectionKind{SectionSales, SectionDesign},
			Weight:    1,
		},
		{
			ID:        PersonaLayout,
			Name:      "طراح چیدمان",
			Specialty: "چیدمان قفسه‌ها، راهروها و نقاط داغ فروشگاه",
			Focus:     []SectionKind{SectionLayoutProposal, SectionCurrentCondition},
			Weight:    1.2,
		},
		{
			ID:        PersonaOperations,
			Name:      "مدیر عملیات",
			Specialty: "موجودی، نیروی انسانی و اجرای تغییرات",
			Focus:     []SectionKind{SectionCurrentCondition, SectionFinancial},
			Weight:    1,
		},
		{
			ID:        PersonaBehavior,
			Name:      "متخصص رفتار مشتری",
			Specialty: "مسیر حرکت مشتری، زمان توقف و تصمیم خرید",
			Focus:     []SectionKind{SectionCustomerFlow, SectionDesign},
			Weight:    1.1,
		},
		{
			ID:        PersonaSales,
			Name:      "بهینه‌ساز فروش",
			Specialty: "افزایش میانگین سبد خرید و فروش مکمل",
			Focus:     []SectionKind{SectionSales, SectionFinancial},
			Weight:    1,
		},
	}
}

// PanelPhase is one step of the panel's six-phase process.
type PanelPhase string

const (
	PhaseReview         PanelPhase = "individual_review"
	PhaseDiscussion     PanelPhase = "cross_discussion"
	PhaseSynthesis      PanelPhase = "synthesis"
	PhasePrioritization PanelPhase = "prioritization"
	PhasePrediction     PanelPhase = "outcome_prediction"
	PhaseConclusion     PanelPhase = "final_conclusion"
)

// PanelPhases in execution order.
var PanelPhases = []PanelPhase{
	PhaseReview,
	PhaseDiscussion,
	PhaseSynthesis,
	PhasePrioritization,
	PhasePrediction,
	PhaseConclusion,
}

var phaseTitles = map[PanelPhase]string{
	PhaseReview:         "بررسی فردی",
	PhaseDiscussion:     "بحث میان متخصصان",
	PhaseSynthesis:      "جمع‌بندی دیدگاه‌ها",
	PhasePrioritization: "اولویت‌بندی و زمان‌بندی",
	PhasePrediction:     "پیش‌بینی نتایج",
	PhaseConclusion:     "نتیجه‌گیری نهایی",
}

func (p PanelPhase) Title() string {
	if t, ok := phaseTitles[p]; ok {
		return t
	}
	return string(p)
}

// ExpertOpinion is one persona's commentary over all section results.
type ExpertOpinion struct {
	Persona     Persona    `json:"persona"`
	Name        string     `json:"name"`
	Commentary  string     `json:"commentary"`
	ActionItems []string   `json:"action_items"`
	Provenance  Provenance `json:"provenance"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PhaseNote is the panel-wide output of one phase after the individual review.
type PhaseNote struct {
	Phase      PanelPhase `json:"phase"`
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
}

// PanelResult is what the expert panel hands to the synthesizer.
type PanelResult struct {
	Skipped  bool            `json:"skipped"`
	Opinions []ExpertOpinion `json:"opinions,omitempty"`
	Phases   []PhaseNote     `json:"phases,omitempty"`
}
