package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

// PersonaSystem frames the model as one panel member.
func (b Builder) PersonaSystem(spec analysis.PersonaSpec) string {
	var w strings.Builder
	fmt.Fprintf(&w, "شما %s در یک پنل مشاوره فروشگاه هستید. تخصص شما: %s.\n", spec.Name, spec.Specialty)
	w.WriteString("فقط در حوزه تخصص خود نظر بده و به نتایج تحلیل‌های ارائه‌شده استناد کن.\n")
	b.writeLanguageRules(&w)
	return w.String()
}

// PanelSystem frames the model as the moderator of the whole panel.
func (b Builder) PanelSystem(personas []analysis.PersonaSpec) string {
	var w strings.Builder
	w.WriteString("شما گرداننده یک پنل متخصصان فروشگاه هستید. اعضای پنل:\n")
	for _, p := range personas {
		fmt.Fprintf(&w, "- %s (%s)\n", p.Name, p.Specialty)
	}
	b.writeLanguageRules(&w)
	return w.String()
}

// PersonaCombined asks one persona to walk all six phases in a single answer.
func (b Builder) PersonaCombined(spec analysis.PersonaSpec, p store.StoreProfile, sections []analysis.SectionResult) Prompt {
	var w strings.Builder
	fmt.Fprintf(&w, "# نظر %s درباره فروشگاه %s\n\n", spec.Name, p.Name)
	writeSections(&w, sections, spec.Focus)
	w.WriteString("## وظیفه\n")
	w.WriteString("این مراحل را به ترتیب و به اختصار طی کن:\n")
	for i, ph := range analysis.PanelPhases {
		fmt.Fprintf(&w, "%d. %s\n", i+1, ph.Title())
	}
	w.WriteString("\n")
	writePersonaContract(&w)
	return Prompt{System: b.PersonaSystem(spec), User: w.String()}
}

// PersonaReview is the first phase only, run per persona.
func (b Builder) PersonaReview(spec analysis.PersonaSpec, p store.StoreProfile, sections []analysis.SectionResult) Prompt {
	var w strings.Builder
	fmt.Fprintf(&w, "# %s: %s\n\n", analysis.PhaseReview.Title(), spec.Name)
	fmt.Fprintf(&w, "فروشگاه: %s\n\n", p.Name)
	writeSections(&w, sections, spec.Focus)
	w.WriteString("## وظیفه\n")
	w.WriteString("نتایج را از دید تخصص خود بررسی کن و مهم‌ترین نکات و اقدامات را بنویس.\n\n")
	writePersonaContract(&w)
	return Prompt{System: b.PersonaSystem(spec), User: w.String()}
}

// PanelPhase renders one panel-wide phase after the individual reviews.
func (b Builder) PanelPhase(phase analysis.PanelPhase, personas []analysis.PersonaSpec, p store.StoreProfile,
	sections []analysis.SectionResult, opinions []analysis.ExpertOpinion, prior []analysis.PhaseNote) Prompt {
	var w strings.Builder
	fmt.Fprintf(&w, "# %s\n\n", phase.Title())
	fmt.Fprintf(&w, "فروشگاه: %s\n\n", p.Name)
	writeSections(&w, sections, nil)

	w.WriteString("## نظرات متخصصان\n")
	for _, o := range opinions {
		fmt.Fprintf(&w, "### %s\n%s\n", o.Name, strings.TrimSpace(o.Commentary))
		for _, a := range o.ActionItems {
			fmt.Fprintf(&w, "- %s\n", a)
		}
	}
	w.WriteString("\n")

	if len(prior) > 0 {
		w.WriteString("## مراحل قبلی\n")
		for _, n := range prior {
			fmt.Fprintf(&w, "### %s\n%s\n", n.Phase.Title(), strings.TrimSpace(n.Text))
		}
		w.WriteString("\n")
	}

	w.WriteString("## وظیفه\n")
	w.WriteString(phaseTask(phase))
	w.WriteString("\n")
	return Prompt{System: b.PanelSystem(personas), User: w.String()}
}

func phaseTask(phase analysis.PanelPhase) string {
	switch phase {
	case analysis.PhaseDiscussion:
		return "نقاط توافق و اختلاف متخصصان را مشخص کن و اختلاف‌ها را با استدلال حل کن.\n"
	case analysis.PhaseSynthesis:
		return "دیدگاه‌ها را در یک جمع‌بندی واحد و منسجم ادغام کن.\n"
	case analysis.PhasePrioritization:
		return "اقدامات را اولویت‌بندی کن و برای هر کدام زمان اجرا (فوری، میان‌مدت، بلندمدت) تعیین کن.\n"
	case analysis.PhasePrediction:
		return "نتایج قابل انتظار اجرای اقدامات را بر فروش و تجربه مشتری پیش‌بینی کن.\n"
	case analysis.PhaseConclusion:
		return "نتیجه‌گیری نهایی پنل را در چند جمله روشن بنویس.\n"
	}
	return "نتایج را بررسی کن.\n"
}

func writePersonaContract(w *strings.Builder) {
	w.WriteString("## قالب پاسخ\n")
	fmt.Fprintf(w, "%s\nچند جمله درباره وضعیت فروشگاه از دید تخصص خودت.\n", HeadingCommentary)
	fmt.Fprintf(w, "%s\nفهرست خط‌تیره‌ای از اقدامات مشخص و قابل اجرا.\n", HeadingActions)
}

// writeSections embeds every section text; focus sections come first.
func writeSections(w *strings.Builder, sections []analysis.SectionResult, focus []analysis.SectionKind) {
	w.WriteString("## نتایج تحلیل بخش‌ها\n")
	ordered := make([]analysis.SectionResult, 0, len(sections))
	used := map[analysis.SectionKind]bool{}
	for _, k := range focus {
		for _, s := range sections {
			if s.Kind == k && !used[k] {
				ordered = append(ordered, s)
				used[k] = true
			}
		}
	}
	for _, s := range sections {
		if !used[s.Kind] {
			ordered = append(ordered, s)
			used[s.Kind] = true
		}
	}
	for _, s := range ordered {
		fmt.Fprintf(w, "### %s\n%s\n\n", s.Kind.Title(), strings.TrimSpace(s.Text))
	}
}
