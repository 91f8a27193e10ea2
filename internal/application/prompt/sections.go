package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

func currentCondition(w *strings.Builder, p store.StoreProfile, f media.Features) {
	w.WriteString("وضعیت فعلی فروشگاه را ارزیابی کن: کیفیت چیدمان موجود، استفاده از فضا، ")
	w.WriteString("وضوح مسیرها و هماهنگی با نوع کسب‌وکار.\n")
	if imgs := f.Images(); len(imgs) > 0 {
		fmt.Fprintf(w, "در ارزیابی به سهم فضای خالی (%s) و تعداد خطوط قفسه دیده‌شده توجه کن.\n",
			pct(avgEmpty(imgs)))
	}
	if strings.TrimSpace(p.Question) != "" {
		fmt.Fprintf(w, "دغدغه مالک فروشگاه: %s\n", p.Question)
	}
}

func sales(w *strings.Builder, p store.StoreProfile, _ media.Features) {
	w.WriteString("عملکرد فروش را تحلیل کن: دسته‌های پرفروش و کم‌فروش، فرصت فروش مکمل ")
	w.WriteString("و اثر جایگاه کالا بر فروش.\n")
	if len(p.ProductCategories) == 0 {
		w.WriteString("دسته‌بندی کالاها ارائه نشده است؛ فرض‌های خود را صریح بنویس.\n")
	}
	if p.DailySales == nil && p.MonthlySales == nil {
		w.WriteString("آمار فروش ارائه نشده است؛ تحلیل را کیفی نگه دار.\n")
	}
}

func customerFlow(w *strings.Builder, p store.StoreProfile, f media.Features) {
	w.WriteString("جریان حرکت مشتری را تحلیل کن: نقاط ورود، مسیرهای پرتردد، نقاط کور ")
	w.WriteString("و محل‌های توقف.\n")
	if len(f.Videos()) > 0 {
		w.WriteString("نقشه تراکم تردد و زمان توقف در نقاط ثابت از ویدیو استخراج شده است؛ از آن استفاده کن.\n")
	} else if p.DailyCustomers != nil {
		fmt.Fprintf(w, "تعداد مشتری روزانه %d نفر است.\n", *p.DailyCustomers)
	}
}

func design(w *strings.Builder, p store.StoreProfile, f media.Features) {
	w.WriteString("طراحی داخلی را تحلیل کن: رنگ‌ها، نورپردازی، خوانایی تابلوها و هماهنگی بصری.\n")
	if imgs := f.Images(); len(imgs) > 0 {
		fmt.Fprintf(w, "روشنایی میانگین تصاویر %s است.\n", pct(avgBrightness(imgs)))
	}
	if len(p.PrimaryColors) == 0 && strings.TrimSpace(p.LightingType) == "" && len(f.Images()) == 0 {
		w.WriteString("اطلاعات رنگ و نور ارائه نشده است؛ توصیه‌های عمومی و کم‌هزینه بده.\n")
	}
}

func layoutProposal(w *strings.Builder, p store.StoreProfile, _ media.Features) {
	w.WriteString("یک چیدمان پیشنهادی ارائه کن: جای قفسه‌ها، عرض راهروها، محل صندوق ")
	w.WriteString("و جایگاه کالاهای پرفروش و مکمل.\n")
	if p.Length != nil && p.Width != nil {
		fmt.Fprintf(w, "ابعاد فروشگاه %s در %s متر است.\n", num(*p.Length), num(*p.Width))
	}
}

func financial(w *strings.Builder, p store.StoreProfile, _ media.Features) {
	w.WriteString("هزینه تقریبی اجرای پیشنهادها، افزایش فروش مورد انتظار، ")
	w.WriteString("بازگشت سرمایه و دوره بازگشت را برآورد کن.\n")
	if p.MonthlySales != nil {
		fmt.Fprintf(w, "فروش ماهانه فعلی %s است.\n", num(*p.MonthlySales))
	} else if p.DailySales != nil {
		fmt.Fprintf(w, "فروش روزانه فعلی %s است.\n", num(*p.DailySales))
	}
}
