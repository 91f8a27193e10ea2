package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
)

func completed() analysis.Notification {
	return analysis.Notification{
		Recipient: "owner@example.com",
		Event:     analysis.EventCompleted,
		Payload: analysis.NotificationPayload{
			RunID: "run-1", TenantID: "acme", StoreID: "s1", StoreName: "فروشگاه تست",
			ReportID: "rep-1", OverallScore: 61.25, Confidence: 45,
			ReportURL: "http://minio/bucket/reports/acme/s1/rep-1.html",
		},
	}
}

func TestComposeCompleted(t *testing.T) {
	m, err := Compose(completed())
	require.NoError(t, err)

	assert.Equal(t, "owner@example.com", m.To)
	assert.Equal(t, "Store analysis ready: فروشگاه تست (score 61)", m.Subject)
	assert.Contains(t, m.PlainBody, "Overall score: 61.2")
	assert.Contains(t, m.PlainBody, "Input confidence: 45%")
	assert.Contains(t, m.HTMLBody, `href="http://minio/bucket/reports/acme/s1/rep-1.html"`)
}

func TestComposeFailedFallsBackToStoreID(t *testing.T) {
	m, err := Compose(analysis.Notification{
		Event:   analysis.EventFailed,
		Payload: analysis.NotificationPayload{RunID: "run-2", StoreID: "s9", Error: "<script>"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Store analysis failed: s9", m.Subject)
	assert.Contains(t, m.PlainBody, "Reason: <script>")
	assert.NotContains(t, m.HTMLBody, "<script>")
}

type recSender struct {
	sent []Message
	err  error
}

func (r *recSender) Send(_ context.Context, m Message) error {
	r.sent = append(r.sent, m)
	return r.err
}

func TestEmailNotifierRecipients(t *testing.T) {
	s := &recSender{}
	n := NewEmailNotifier(s, "ops@example.com", nil)

	require.NoError(t, n.Notify(context.Background(), completed()))
	note := completed()
	note.Recipient = " "
	require.NoError(t, n.Notify(context.Background(), note))

	require.Len(t, s.sent, 2)
	assert.Equal(t, "owner@example.com", s.sent[0].To)
	assert.Equal(t, "ops@example.com", s.sent[1].To)

	// nobody to send to is not an error
	quiet := NewEmailNotifier(s, "", nil)
	require.NoError(t, quiet.Notify(context.Background(), note))
	assert.Len(t, s.sent, 2)

	s.err = errors.New("relay down")
	assert.Error(t, n.Notify(context.Background(), completed()))
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), completed()))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "analysis notification", entry.Message)
	assert.Equal(t, "completed", entry.ContextMap()["event"])
	assert.Equal(t, "rep-1", entry.ContextMap()["report_id"])
}

func TestSMTPSenderBuildsMultipart(t *testing.T) {
	s := NewSMTPSender("mail.local", 2525, "user", "secret", "noreply@example.com")
	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		assert.NotNil(t, a)
		assert.Equal(t, "noreply@example.com", from)
		return nil
	}

	m, err := Compose(completed())
	require.NoError(t, err)
	require.NoError(t, s.Send(context.Background(), m))

	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"owner@example.com"}, gotTo)
	body := string(gotMsg)
	assert.True(t, strings.HasPrefix(body, "From: noreply@example.com\r\n"))
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(body, "--"+boundary+"--\r\n"))
}

type fakeSES struct {
	in  *ses.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSESSender(t *testing.T) {
	api := &fakeSES{}
	s := NewSESSenderWithClient(api, "noreply@example.com")
	m, err := Compose(completed())
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), m))
	require.NotNil(t, api.in)
	assert.Equal(t, "noreply@example.com", aws.ToString(api.in.Source))
	assert.Equal(t, []string{"owner@example.com"}, api.in.Destination.ToAddresses)
	assert.Equal(t, m.Subject, aws.ToString(api.in.Message.Subject.Data))
	assert.Equal(t, "UTF-8", aws.ToString(api.in.Message.Body.Html.Charset))

	api.err = errors.New("throttled")
	assert.ErrorContains(t, s.Send(context.Background(), m), "throttled")
}
