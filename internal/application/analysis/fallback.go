package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bryanwahyu/storelens/internal/application"
	"github.com/bryanwahyu/storelens/internal/application/prompt"
	"github.com/bryanwahyu/storelens/internal/domain/ai"
	domain "github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

const (
	minFallbackConfidence = 0.3
	maxFallbackConfidence = 0.5

	// IndustryROI and IndustryPaybackMonths are used whenever no
	// store-specific financial estimate is available.
	IndustryROI           = 25.0
	IndustryPaybackMonths = 12.0

	maxFallbackItems = 4
)

// FallbackEngine builds local substitutes for sections and panel members
// whose remote call failed. It only reads its inputs and never fails.
type FallbackEngine struct {
	Confidence float64
	Clock      application.Clock
}

func NewFallbackEngine(confidence float64, clock application.Clock) *FallbackEngine {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &FallbackEngine{
		Confidence: clamp(confidence, minFallbackConfidence, maxFallbackConfidence),
		Clock:      clock,
	}
}

type findings struct {
	strengths       []string
	weaknesses      []string
	recommendations []string
}

func (f *findings) strength(s string)  { f.strengths = append(f.strengths, s) }
func (f *findings) weakness(s string)  { f.weaknesses = append(f.weaknesses, s) }
func (f *findings) recommend(s string) { f.recommendations = append(f.recommendations, s) }

// keywordRule adds a recommendation to a section when the owner's question mentions a topic.
type keywordRule struct {
	section  domain.SectionKind
	keywords []string
	advice   string
}

var keywordRules = []keywordRule{
	{domain.SectionSales, []string{"فروش", "sales", "درآمد", "revenue"},
		"کالاهای پرحاشیه را در ارتفاع دید و کنار کالاهای پرفروش قرار دهید (حدود 7%)."},
	{domain.SectionCustomerFlow, []string{"شلوغ", "ازدحام", "صف", "crowd", "queue", "مشتری", "customer"},
		"فوری: مسیر صف صندوق را از مسیر اصلی حرکت جدا کنید تا گره ترافیکی ایجاد نشود (حدود 5%)."},
	{domain.SectionDesign, []string{"نور", "روشنایی", "light", "رنگ", "color"},
		"دمای رنگ نور را در بخش‌های مختلف متناسب با نوع کالا تنظیم کنید (حدود 4%)."},
	{domain.SectionLayoutProposal, []string{"قفسه", "چیدمان", "shelf", "layout", "راهرو", "aisle"},
		"فوری: قفسه‌های کم‌فروش انتهایی را با کالاهای مقصد جابه‌جا کنید تا مشتری به عمق فروشگاه کشیده شود (حدود 6%)."},
	{domain.SectionFinancial, []string{"هزینه", "بودجه", "cost", "budget", "سرمایه"},
		"تغییرات را از اقدامات کم‌هزینه شروع کنید و اثر هر مرحله را پیش از مرحله بعد بسنجید (حدود 3%)."},
	{domain.SectionCurrentCondition, []string{"قدیمی", "شلوغی", "نامرتب", "old", "messy", "clutter"},
		"فوری: کالاهای اضافی و کارتن‌ها را از سطح فروش جمع کنید تا فضا مرتب دیده شود (حدود 4%)."},
}

// Section returns a fallback result for kind. reason is the failure that triggered it.
func (e *FallbackEngine) Section(kind domain.SectionKind, p store.StoreProfile, f media.Features, reason ai.ErrorKind) domain.SectionResult {
	var fs findings
	switch kind {
	case domain.SectionCurrentCondition:
		currentConditionRules(&fs, p, f)
	case domain.SectionSales:
		salesRules(&fs, p)
	case domain.SectionCustomerFlow:
		customerFlowRules(&fs, p, f)
	case domain.SectionDesign:
		designRules(&fs, p, f)
	case domain.SectionLayoutProposal:
		layoutRules(&fs, p)
	case domain.SectionFinancial:
		financialRules(&fs, p)
	}

	question := strings.ToLower(p.Question)
	for _, r := range keywordRules {
		if r.section != kind || question == "" {
			continue
		}
		for _, kw := range r.keywords {
			if strings.Contains(question, kw) {
				fs.recommend(r.advice)
				break
			}
		}
	}

	// baseline so every heading has at least one line
	if len(fs.strengths) == 0 {
		fs.strength("اطلاعات پایه فروشگاه برای شروع تحلیل ثبت شده است.")
	}
	if len(fs.weaknesses) == 0 {
		fs.weakness("داده کافی برای تحلیل دقیق این بخش در دسترس نیست.")
	}
	if len(fs.recommendations) == 0 {
		fs.recommend(defaultAdvice[kind])
	}

	var w strings.Builder
	fmt.Fprintf(&w, "# %s\n", kind.Title())
	w.WriteString("> این بخش با تحلیل محلی و بدون سرویس هوش مصنوعی تهیه شده است.\n\n")
	writeList(&w, prompt.HeadingStrengths, fs.strengths)
	writeList(&w, prompt.HeadingWeaknesses, fs.weaknesses)
	writeList(&w, prompt.HeadingRecommendations, fs.recommendations)
	if kind == domain.SectionFinancial {
		w.WriteString("## برآورد مالی\n")
		fmt.Fprintf(&w, "%s: %s%%\n", prompt.ROILabel, strconv.FormatFloat(IndustryROI, 'f', -1, 64))
		fmt.Fprintf(&w, "%s: %s ماه\n", prompt.PaybackLabel, strconv.FormatFloat(IndustryPaybackMonths, 'f', -1, 64))
		w.WriteString("این ارقام برآورد میانگین صنعت است و بر داده‌های این فروشگاه تکیه ندارد.\n")
	}

	return domain.SectionResult{
		Kind:       kind,
		Text:       w.String(),
		Provenance: domain.ProvenanceFallback,
		Confidence: e.Confidence,
		ErrorKind:  string(reason),
		CreatedAt:  e.Clock.Now(),
	}
}

var defaultAdvice = map[domain.SectionKind]string{
	domain.SectionCurrentCondition: "فوری: ورودی فروشگاه را خلوت کنید و کالاهای پرفروش را در دید مستقیم ورودی بگذارید (حدود 5%).",
	domain.SectionSales:            "کالاهای مکمل را کنار هم بچینید تا فروش همراه افزایش یابد (حدود 8%).",
	domain.SectionCustomerFlow:     "مسیر حرکت را طوری طراحی کنید که مشتری از کنار بیشتر قفسه‌ها عبور کند (حدود 7%).",
	domain.SectionDesign:           "روی قفسه‌های اصلی نور موضعی اضافه کنید تا کالا بهتر دیده شود (حدود 4%).",
	domain.SectionLayoutProposal:   "فوری: عرض راهروهای اصلی را دست‌کم 1.2 متر نگه دارید (حدود 6%).",
	domain.SectionFinancial:        "تغییرات را مرحله‌ای و با بودجه محدود اجرا کنید (حدود 3%).",
}

func currentConditionRules(fs *findings, p store.StoreProfile, f media.Features) {
	if p.Size != nil {
		fs.strength(fmt.Sprintf("متراژ %s متر مربع فضای قابل برنامه‌ریزی برای چیدمان فراهم می‌کند.", fnum(*p.Size)))
	}
	if strings.TrimSpace(p.Type) != "" {
		fs.strength(fmt.Sprintf("نوع کسب‌وکار (%s) مشخص است و چیدمان را می‌توان با آن هماهنگ کرد.", p.Type))
	}
	imgs := f.Images()
	if len(imgs) == 0 {
		fs.weakness("تصویری از وضعیت فعلی فروشگاه در دسترس نیست.")
	} else {
		empty := 0.0
		for _, im := range imgs {
			empty += im.EmptySpaceRatio
		}
		if empty/float64(len(imgs)) > 0.35 {
			fs.weakness("سهم فضای خالی در تصاویر بالاست و بخشی از متراژ بدون استفاده مانده است.")
			fs.recommend("فوری: فضاهای خالی را با قفسه‌های کوتاه یا نمایش ویژه پر کنید (حدود 6%).")
		} else {
			fs.strength("تصاویر نشان می‌دهد بیشتر فضای فروشگاه استفاده شده است.")
		}
	}
	if len(f.Warnings) > 0 {
		fs.weakness(fmt.Sprintf("%d فایل تصویری یا ویدیویی قابل پردازش نبود.", len(f.Warnings)))
	}
}

func salesRules(fs *findings, p store.StoreProfile) {
	cats := nonBlank(p.ProductCategories)
	if len(cats) > 0 {
		fs.strength(fmt.Sprintf("تنوع %d دسته کالا امکان فروش مکمل را فراهم می‌کند.", len(cats)))
	} else {
		fs.weakness("دسته‌بندی کالاها ثبت نشده است.")
	}
	if p.DailySales == nil && p.MonthlySales == nil {
		fs.weakness("آمار فروش ثبت نشده و ارزیابی عملکرد فروش ممکن نیست.")
		fs.recommend("ثبت روزانه فروش به تفکیک دسته کالا را شروع کنید تا اثر تغییرات قابل سنجش باشد (حدود 2%).")
	} else {
		fs.strength("آمار فروش ثبت شده و امکان مقایسه قبل و بعد از تغییرات وجود دارد.")
	}
	if len(cats) >= 3 {
		fs.recommend("پرفروش‌ترین دسته را در انتهای فروشگاه قرار دهید تا مشتری از کنار دسته‌های دیگر عبور کند (حدود 6%).")
	}
}

func customerFlowRules(fs *findings, p store.StoreProfile, f media.Features) {
	videos := f.Videos()
	if len(videos) > 0 {
		fs.strength("ویدیوی فروشگاه امکان برآورد تراکم تردد را فراهم کرده است.")
		for _, v := range videos {
			for _, c := range v.Checkpoints {
				if c.DwellSeconds < 2 {
					fs.weakness(fmt.Sprintf("مشتریان در %s تقریباً توقف نمی‌کنند.", c.Name))
					break
				}
			}
		}
	}
	if p.DailyCustomers != nil {
		fs.strength(fmt.Sprintf("روزانه حدود %d مشتری وارد فروشگاه می‌شوند.", *p.DailyCustomers))
	}
	if p.AvgDwellMinutes != nil && *p.AvgDwellMinutes < 5 {
		fs.weakness("زمان حضور مشتری کوتاه است و مشتری بخش زیادی از فروشگاه را نمی‌بیند.")
		fs.recommend("در میانه مسیر یک نقطه توقف جذاب مثل پیشنهاد ویژه یا تست محصول ایجاد کنید (حدود 5%).")
	}
	if len(videos) == 0 && p.DailyCustomers == nil {
		fs.weakness("داده‌ای از تردد مشتری در دسترس نیست.")
	}
}

func designRules(fs *findings, p store.StoreProfile, f media.Features) {
	if strings.TrimSpace(p.LightingType) != "" {
		fs.strength(fmt.Sprintf("نوع نورپردازی (%s) مشخص است.", p.LightingType))
	}
	if len(p.PrimaryColors) > 0 {
		fs.strength(fmt.Sprintf("رنگ‌های اصلی فروشگاه (%s) تعریف شده است.", strings.Join(p.PrimaryColors, "، ")))
	} else {
		fs.weakness("رنگ‌بندی فروشگاه مشخص نشده است.")
	}
	if imgs := f.Images(); len(imgs) > 0 {
		b := 0.0
		for _, im := range imgs {
			b += im.Brightness
		}
		b /= float64(len(imgs))
		switch {
		case b < 0.35:
			fs.weakness("تصاویر نشان می‌دهد فضای فروشگاه کم‌نور است.")
			fs.recommend("فوری: روشنایی عمومی را افزایش دهید؛ فضای تاریک زمان حضور مشتری را کم می‌کند (حدود 5%).")
		case b > 0.85:
			fs.weakness("نور فضا بیش از حد شدید است و ممکن است خیرگی ایجاد کند.")
		default:
			fs.strength("روشنایی کلی فضا در تصاویر متعادل است.")
		}
	}
}

func layoutRules(fs *findings, p store.StoreProfile) {
	if p.Length != nil && p.Width != nil {
		fs.strength(fmt.Sprintf("ابعاد %s در %s متر امکان طراحی دقیق مسیرها را می‌دهد.", fnum(*p.Length), fnum(*p.Width)))
		if *p.Width < 6 {
			fs.weakness("عرض کم فروشگاه جای راهروهای موازی را محدود می‌کند.")
			fs.recommend("از یک راهروی اصلی و قفسه‌های دیواری استفاده کنید تا مسیر باز بماند (حدود 4%).")
		}
	} else if strings.TrimSpace(p.LayoutDescription) != "" {
		fs.strength("توضیح چیدمان فعلی ثبت شده است.")
	} else {
		fs.weakness("ابعاد و نقشه فروشگاه در دسترس نیست.")
	}
	fs.recommend("صندوق را نزدیک خروجی قرار دهید و کالاهای خرید آنی را کنار آن بچینید (حدود 3%).")
}

func financialRules(fs *findings, p store.StoreProfile) {
	if p.MonthlySales != nil || p.DailySales != nil {
		fs.strength("داده فروش برای سنجش اثر مالی تغییرات موجود است.")
	} else {
		fs.weakness("بدون داده فروش، برآورد مالی فقط بر میانگین صنعت تکیه دارد.")
	}
}

func writeList(w *strings.Builder, heading string, items []string) {
	w.WriteString(heading + "\n")
	for i, it := range items {
		if i == maxFallbackItems {
			break
		}
		w.WriteString("- " + it + "\n")
	}
	w.WriteString("\n")
}

// Persona synthesizes an opinion in the persona's framing from the section texts.
func (e *FallbackEngine) Persona(spec domain.PersonaSpec, sections []domain.SectionResult) domain.ExpertOpinion {
	var actions []string
	seen := map[string]bool{}
	add := func(items []string) {
		for _, it := range items {
			if len(actions) == 3 {
				return
			}
			if !seen[it] {
				seen[it] = true
				actions = append(actions, it)
				return
			}
		}
	}
	for _, k := range spec.Focus {
		for _, s := range sections {
			if s.Kind == k {
				add(parseText(s.Text).recommendations)
			}
		}
	}
	for _, s := range sections {
		add(parseText(s.Text).recommendations)
	}
	if len(actions) == 0 {
		actions = []string{defaultAdvice[domain.SectionCurrentCondition]}
	}

	var weak []string
	for _, s := range sections {
		weak = append(weak, parseText(s.Text).weaknesses...)
	}
	commentary := fmt.Sprintf("از دید %s با تمرکز بر %s، ", spec.Name, spec.Specialty)
	if len(weak) > 0 {
		commentary += "مهم‌ترین مسئله این است که " + strings.TrimSuffix(weak[0], ".") + "."
	} else {
		commentary += "وضعیت کلی قابل قبول است و اقدامات زیر بیشترین اثر را دارند."
	}

	return domain.ExpertOpinion{
		Persona:     spec.ID,
		Name:        spec.Name,
		Commentary:  commentary,
		ActionItems: actions,
		Provenance:  domain.ProvenanceFallback,
		CreatedAt:   e.Clock.Now(),
	}
}

// Phase summarizes one panel-wide phase from the opinions gathered so far.
func (e *FallbackEngine) Phase(phase domain.PanelPhase, opinions []domain.ExpertOpinion) domain.PhaseNote {
	var w strings.Builder
	switch phase {
	case domain.PhaseDiscussion:
		w.WriteString("متخصصان بر اولویت اصلاح مسیر حرکت مشتری و جایگاه کالاهای پرفروش توافق دارند.\n")
	case domain.PhaseSynthesis:
		w.WriteString("جمع‌بندی پنل: تغییرات کم‌هزینه چیدمان و نور پیش از سرمایه‌گذاری‌های بزرگ اجرا شود.\n")
	case domain.PhasePrioritization:
		w.WriteString("اولویت‌ها:\n")
		for i, o := range opinions {
			if len(o.ActionItems) > 0 {
				fmt.Fprintf(&w, "%d. %s\n", i+1, o.ActionItems[0])
			}
		}
	case domain.PhasePrediction:
		fmt.Fprintf(&w, "با اجرای اقدامات، افزایش فروش در حد میانگین صنعت (حدود %s%% بازده سالانه) قابل انتظار است.\n",
			strconv.FormatFloat(IndustryROI, 'f', -1, 64))
	case domain.PhaseConclusion:
		fmt.Fprintf(&w, "پنل %d متخصص توصیه می‌کند اقدامات فوری در ماه اول اجرا و نتایج پس از سه ماه ارزیابی شود.\n", len(opinions))
	default:
		w.WriteString("بدون یادداشت.\n")
	}
	return domain.PhaseNote{Phase: phase, Text: w.String(), Provenance: domain.ProvenanceFallback}
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
