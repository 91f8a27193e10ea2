// Package export renders completed reports to a standalone HTML page and
// writes it somewhere a store owner can open it.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
)

// Renderer turns a report into HTML.
type Renderer struct {
	template *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"lines":    lines,
		"percent":  func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
		"score":    func(f float64) string { return fmt.Sprintf("%.1f", f) },
		"priority": priorityLabel,
		"fallback": func(p analysis.Provenance) bool { return p == analysis.ProvenanceFallback },
	}).Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Renderer{template: tmpl}, nil
}

// sectionView pairs a section with its display title.
type sectionView struct {
	analysis.SectionResult
	Title string
}

type reportView struct {
	*analysis.AnalysisReport
	Views []sectionView
}

// Render returns the full HTML document.
func (r *Renderer) Render(rep *analysis.AnalysisReport) ([]byte, error) {
	if rep == nil {
		return nil, fmt.Errorf("nil report")
	}
	view := reportView{AnalysisReport: rep}
	for _, s := range rep.Sections {
		view.Views = append(view.Views, sectionView{SectionResult: s, Title: s.Kind.Title()})
	}

	var buf bytes.Buffer
	if err := r.template.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return buf.Bytes(), nil
}

func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func priorityLabel(p analysis.Priority) string {
	switch p {
	case analysis.PriorityHigh:
		return "بالا"
	case analysis.PriorityMedium:
		return "متوسط"
	}
	return "پایین"
}

const reportTemplate = `<!DOCTYPE html>
<html lang="fa" dir="rtl">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>گزارش تحلیل {{.StoreName}}</title>
<style>
body { font-family: Tahoma, sans-serif; max-width: 860px; margin: 24px auto; color: #222; line-height: 1.7; }
.score { font-size: 2.4em; font-weight: bold; }
.caveat { background: #fff4e5; border-right: 4px solid #f0a030; padding: 8px 12px; }
.fallback { color: #a05a00; font-size: .85em; }
section { border-bottom: 1px solid #eee; padding: 8px 0; }
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid #ddd; padding: 4px 8px; text-align: right; }
</style>
</head>
<body>
<h1>{{.StoreName}}</h1>
<p>امتیاز کلی: <span class="score">{{score .OverallScore}}</span> از ۱۰۰ · اطمینان ورودی {{percent .Confidence.Aggregate}} · سطح {{.Tier}}</p>
{{if .Caveat}}<p class="caveat">{{.Caveat}}</p>{{end}}

{{if .Insights}}
<h2>نکات کلیدی</h2>
<ul>{{range .Insights}}<li>{{.Text}}</li>{{end}}</ul>
{{end}}

<h2>پیشنهادها</h2>
<table>
<tr><th>عنوان</th><th>اولویت</th><th>اثر تخمینی بر فروش</th></tr>
{{range .Recommendations}}<tr><td>{{.Title}}</td><td>{{priority .Priority}}</td><td>{{.SalesImpact}}%</td></tr>
{{end}}</table>

<h2>برنامه اجرا</h2>
<h3>فوری</h3><ul>{{range .Timeline.Immediate}}<li>{{.}}</li>{{end}}</ul>
<h3>میان‌مدت</h3><ul>{{range .Timeline.MediumTerm}}<li>{{.}}</li>{{end}}</ul>
<h3>بلندمدت</h3><ul>{{range .Timeline.LongTerm}}<li>{{.}}</li>{{end}}</ul>

<h2>پیش‌بینی مالی</h2>
<p>{{.Financial.Label}}: بازگشت سرمایه {{.Financial.ROIPercent}}% ({{.Financial.ROILow}} تا {{.Financial.ROIHigh}})، دوره بازگشت {{.Financial.PaybackMonths}} ماه</p>

{{range .Views}}
<section>
<h2>{{.Title}}</h2>
{{if fallback .Provenance}}<p class="fallback">تحلیل جایگزین محلی · اطمینان {{percent .Confidence}}</p>{{end}}
{{range lines .Text}}<p>{{.}}</p>{{end}}
</section>
{{end}}

{{if not .Panel.Skipped}}{{if .Panel.Opinions}}
<h2>پنل کارشناسان</h2>
{{range .Panel.Opinions}}
<section>
<h3>{{.Name}}</h3>
{{range lines .Commentary}}<p>{{.}}</p>{{end}}
</section>
{{end}}
{{end}}{{end}}
<p><small>{{.CreatedAt.Format "2006-01-02 15:04 MST"}} · {{.ID}}</small></p>
</body>
</html>
`
