package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bryanwahyu/storelens/internal/domain/media"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

func writeProfile(w *strings.Builder, p store.StoreProfile) {
	line := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(w, "- %s: %s\n", label, value)
		}
	}
	line("نام فروشگاه", p.Name)
	line("نوع فروشگاه", p.Type)
	if p.Size != nil {
		line("متراژ", num(*p.Size)+" متر مربع")
	}
	line("شهر", p.City)
	line("آدرس", p.Address)
	if p.Length != nil {
		line("طول", num(*p.Length)+" متر")
	}
	if p.Width != nil {
		line("عرض", num(*p.Width)+" متر")
	}
	if p.CeilingHeight != nil {
		line("ارتفاع سقف", num(*p.CeilingHeight)+" متر")
	}
	line("توضیح چیدمان", p.LayoutDescription)
	line("رنگ‌های اصلی", strings.Join(p.PrimaryColors, "، "))
	line("نوع نورپردازی", p.LightingType)
	if p.DailyCustomers != nil {
		line("مشتری روزانه", strconv.Itoa(*p.DailyCustomers))
	}
	if p.AvgDwellMinutes != nil {
		line("میانگین زمان حضور", num(*p.AvgDwellMinutes)+" دقیقه")
	}
	if p.DailySales != nil {
		line("فروش روزانه", num(*p.DailySales))
	}
	if p.MonthlySales != nil {
		line("فروش ماهانه", num(*p.MonthlySales))
	}
	line("دسته‌های کالا", strings.Join(p.ProductCategories, "، "))
	if n := len(p.Images()); n > 0 {
		line("تعداد تصاویر", strconv.Itoa(n))
	}
	if n := len(p.Videos()); n > 0 {
		line("تعداد ویدیوها", strconv.Itoa(n))
	}
}

func writeFeatures(w *strings.Builder, f media.Features) {
	if imgs := f.Images(); len(imgs) > 0 {
		fmt.Fprintf(w, "- تصاویر تحلیل‌شده: %d\n", len(imgs))
		fmt.Fprintf(w, "- روشنایی میانگین: %s (%s)\n", pct(avgBrightness(imgs)), lightingLabel(imgs))
		if colors := topColors(imgs, 3); len(colors) > 0 {
			parts := make([]string, 0, len(colors))
			for _, c := range colors {
				parts = append(parts, fmt.Sprintf("%s %s", c.Hex, pct(c.Share)))
			}
			fmt.Fprintf(w, "- رنگ‌های غالب: %s\n", strings.Join(parts, "، "))
		}
		shelves, aisles := 0, 0
		for _, im := range imgs {
			shelves += im.ShelfLines
			aisles += im.AisleBoundaries
		}
		fmt.Fprintf(w, "- خطوط قفسه: %d، مرزهای راهرو: %d\n", shelves, aisles)
		fmt.Fprintf(w, "- سهم فضای خالی: %s\n", pct(avgEmpty(imgs)))
	}
	for i, v := range f.Videos() {
		fmt.Fprintf(w, "- ویدیو %d: %d فریم، حدود %s ثانیه، تخمین مشتری %d نفر\n",
			i+1, v.FramesSampled, num(round1(v.DurationSeconds)), v.CustomerEstimate)
		for _, hot := range hotCells(v, 3) {
			fmt.Fprintf(w, "  - ناحیه پرتردد ردیف %d ستون %d: %s\n", hot.row+1, hot.col+1, pct(hot.value))
		}
		for _, c := range v.Checkpoints {
			fmt.Fprintf(w, "  - توقف در %s: %s ثانیه\n", c.Name, num(round1(c.DwellSeconds)))
		}
	}
	if n := len(f.Warnings); n > 0 {
		fmt.Fprintf(w, "- %d فایل قابل پردازش نبود و بدون داده تصویری در نظر گرفته شد.\n", n)
	}
}

func avgBrightness(imgs []media.ImageFeatures) float64 {
	if len(imgs) == 0 {
		return 0
	}
	sum := 0.0
	for _, im := range imgs {
		sum += im.Brightness
	}
	return sum / float64(len(imgs))
}

func avgEmpty(imgs []media.ImageFeatures) float64 {
	if len(imgs) == 0 {
		return 0
	}
	sum := 0.0
	for _, im := range imgs {
		sum += im.EmptySpaceRatio
	}
	return sum / float64(len(imgs))
}

func lightingLabel(imgs []media.ImageFeatures) string {
	b := avgBrightness(imgs)
	switch {
	case b < 0.35:
		return "کم‌نور"
	case b < 0.7:
		return "متعادل"
	}
	return "پرنور"
}

// topColors merges dominant colors across images, heaviest first.
func topColors(imgs []media.ImageFeatures, n int) []media.ColorShare {
	sum := map[string]float64{}
	for _, im := range imgs {
		for _, c := range im.DominantColors {
			sum[c.Hex] += c.Share / float64(len(imgs))
		}
	}
	out := make([]media.ColorShare, 0, len(sum))
	for hex, share := range sum {
		out = append(out, media.ColorShare{Hex: hex, Share: share})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Share != out[j].Share {
			return out[i].Share > out[j].Share
		}
		return out[i].Hex < out[j].Hex
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

type cell struct {
	row, col int
	value    float64
}

func hotCells(v media.VideoFeatures, n int) []cell {
	var cells []cell
	for r, row := range v.Heatmap {
		for c, val := range row {
			if val > 0 {
				cells = append(cells, cell{row: r, col: c, value: val})
			}
		}
	}
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].value > cells[j].value })
	if len(cells) > n {
		cells = cells[:n]
	}
	return cells
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func pct(v float64) string {
	return strconv.Itoa(int(v*100+0.5)) + "%"
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
