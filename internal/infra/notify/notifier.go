package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// EmailNotifier implements analysis.Notifier on top of a Sender.
type EmailNotifier struct {
	sender   Sender
	fallback string // used when the run names no recipient
	log      *zap.Logger
}

func NewEmailNotifier(sender Sender, fallbackRecipient string, log *zap.Logger) *EmailNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &EmailNotifier{sender: sender, fallback: fallbackRecipient, log: log.With(zap.String("component", "notifier"))}
}

func (n *EmailNotifier) Notify(ctx context.Context, note analysis.Notification) error {
	if strings.TrimSpace(note.Recipient) == "" {
		note.Recipient = n.fallback
	}
	if note.Recipient == "" {
		n.log.Debug("no recipient, notification dropped",
			zap.String("run_id", note.Payload.RunID),
			zap.String("event", string(note.Event)))
		return nil
	}
	m, err := Compose(note)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, m)
}

// LogNotifier only writes the notification to the log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log.With(zap.String("component", "notifier"))}
}

func (n *LogNotifier) Notify(_ context.Context, note analysis.Notification) error {
	p := note.Payload
	n.log.Info("analysis notification",
		zap.String("event", string(note.Event)),
		zap.String("recipient", note.Recipient),
		zap.String("run_id", p.RunID),
		zap.String("tenant_id", p.TenantID),
		zap.String("store_id", p.StoreID),
		zap.String("report_id", string(p.ReportID)),
		zap.Float64("overall_score", p.OverallScore),
		zap.String("report_url", p.ReportURL),
		zap.String("error", p.Error))
	return nil
}
