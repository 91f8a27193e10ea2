// Package notify delivers run completion and failure notices. Delivery is
// best effort; the analysis service only logs a failed Notify.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
)

// Message is a rendered email.
type Message struct {
	To        string
	Subject   string
	HTMLBody  string
	PlainBody string
}

var htmlTmpl = template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html lang="fa" dir="rtl"><body style="font-family: Tahoma, sans-serif">
{{if .Done}}<p>تحلیل فروشگاه <b>{{.P.StoreName}}</b> آماده است.</p>
<p>امتیاز کلی: {{printf "%.1f" .P.OverallScore}} · اطمینان ورودی {{.P.Confidence}}%</p>
{{if .P.ReportURL}}<p><a href="{{.P.ReportURL}}">مشاهده گزارش</a></p>{{end}}
{{else}}<p>تحلیل فروشگاه <b>{{.P.StoreName}}</b> انجام نشد.</p>
<p>{{.P.Error}}</p>{{end}}
<p><small>{{.P.RunID}}</small></p>
</body></html>`))

// Compose renders the email for n. The recipient is taken from n.
func Compose(n analysis.Notification) (Message, error) {
	p := n.Payload
	name := p.StoreName
	if strings.TrimSpace(name) == "" {
		name = p.StoreID
	}
	done := n.Event == analysis.EventCompleted

	var subject string
	var plain strings.Builder
	if done {
		subject = fmt.Sprintf("Store analysis ready: %s (score %.0f)", name, p.OverallScore)
		fmt.Fprintf(&plain, "The analysis of %s is complete.\nOverall score: %.1f\nInput confidence: %d%%\n", name, p.OverallScore, p.Confidence)
		if p.ReportURL != "" {
			fmt.Fprintf(&plain, "Report: %s\n", p.ReportURL)
		}
	} else {
		subject = fmt.Sprintf("Store analysis failed: %s", name)
		fmt.Fprintf(&plain, "The analysis of %s could not be completed.\nReason: %s\n", name, p.Error)
	}
	fmt.Fprintf(&plain, "Run: %s\n", p.RunID)

	var buf bytes.Buffer
	data := struct {
		Done bool
		P    analysis.NotificationPayload
	}{done, p}
	data.P.StoreName = name
	if err := htmlTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("failed to render notice: %w", err)
	}

	return Message{To: n.Recipient, Subject: subject, HTMLBody: buf.String(), PlainBody: plain.String()}, nil
}
