package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

// Output headings shared by prompts, the fallback engine and the synthesizer.
const (
	HeadingStrengths       = "## نقاط قوت"
	HeadingWeaknesses      = "## نقاط ضعف"
	HeadingRecommendations = "## پیشنهادها"
	HeadingCommentary      = "## دیدگاه"
	HeadingActions         = "## اقدامات پیشنهادی"

	ROILabel     = "بازگشت سرمایه"
	PaybackLabel = "دوره بازگشت"
)

// Prompt is one system instruction plus one user message.
type Prompt struct {
	System string
	User   string
}

// Builder renders section and panel prompts. It holds no mutable state and
// the same inputs always produce byte-identical output.
type Builder struct {
	Language       string
	ForbiddenWords []string
}

func NewBuilder(language string, forbidden []string) Builder {
	if language == "" {
		language = "fa"
	}
	return Builder{Language: language, ForbiddenWords: append([]string(nil), forbidden...)}
}

// SystemInstruction is the fixed system-role message for section prompts.
func (b Builder) SystemInstruction() string {
	var w strings.Builder
	w.WriteString("شما یک مشاور ارشد طراحی و چیدمان فروشگاه‌های خرده‌فروشی هستید. ")
	w.WriteString("تحلیل‌ها باید دقیق، عملی و مبتنی بر داده‌های ارائه‌شده باشد و از حدس بی‌پایه پرهیز شود.\n")
	b.writeLanguageRules(&w)
	return w.String()
}

type sectionFunc func(w *strings.Builder, p store.StoreProfile, f media.Features)

var sectionBuilders = map[analysis.SectionKind]sectionFunc{
	analysis.SectionCurrentCondition: currentCondition,
	analysis.SectionSales:            sales,
	analysis.SectionCustomerFlow:     customerFlow,
	analysis.SectionDesign:           design,
	analysis.SectionLayoutProposal:   layoutProposal,
	analysis.SectionFinancial:        financial,
}

// Section renders the prompt for one section kind.
func (b Builder) Section(kind analysis.SectionKind, p store.StoreProfile, f media.Features) Prompt {
	var w strings.Builder
	fmt.Fprintf(&w, "# %s\n\n", kind.Title())

	w.WriteString("## اطلاعات فروشگاه\n")
	writeProfile(&w, p)
	w.WriteString("\n")

	if f.HasSignal() {
		w.WriteString("## داده‌های استخراج‌شده از تصاویر و ویدیو\n")
		writeFeatures(&w, f)
		w.WriteString("\n")
	}

	w.WriteString("## وظیفه\n")
	if fn, ok := sectionBuilders[kind]; ok {
		fn(&w, p, f)
	}
	w.WriteString("\n")

	writeOutputContract(&w, kind == analysis.SectionFinancial)
	return Prompt{System: b.SystemInstruction(), User: w.String()}
}

func (b Builder) writeLanguageRules(w *strings.Builder) {
	if strings.EqualFold(b.Language, "fa") {
		w.WriteString("پاسخ را فقط به زبان فارسی و با اصطلاحات فارسی بنویس.\n")
	} else {
		fmt.Fprintf(w, "Write the answer in language %q only.\n", b.Language)
	}
	if len(b.ForbiddenWords) > 0 {
		fmt.Fprintf(w, "از به‌کار بردن این واژه‌ها خودداری کن و معادل فارسی آن‌ها را بنویس: %s\n",
			strings.Join(b.ForbiddenWords, "، "))
	}
}

func writeOutputContract(w *strings.Builder, withFinancials bool) {
	w.WriteString("## قالب پاسخ\n")
	w.WriteString("پاسخ را دقیقاً با این سه عنوان و در هر عنوان به صورت فهرست خط‌تیره‌ای بنویس:\n")
	fmt.Fprintf(w, "%s\n%s\n%s\n", HeadingStrengths, HeadingWeaknesses, HeadingRecommendations)
	w.WriteString("برای هر پیشنهاد در صورت امکان اثر تخمینی بر فروش را به شکل درصد (مثلاً 8%) بنویس ")
	w.WriteString("و پیشنهادهای فوری را با پیشوند «فوری:» در ابتدای خط مشخص کن.\n")
	if withFinancials {
		fmt.Fprintf(w, "در پایان دو خط جداگانه بنویس: «%s: N%%» و «%s: N ماه».\n", ROILabel, PaybackLabel)
	}
}
