package analysis

import (
	"context"
	"errors"
)

// ErrReportNotFound is returned by ReportRepository reads when nothing matches.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository port (persistence of completed reports)
type ReportRepository interface {
	// Save stores a completed report exactly once and returns its id.
	Save(ctx context.Context, storeID string, r *AnalysisReport) (ReportID, error)
	Get(ctx context.Context, tenant string, id ReportID) (*AnalysisReport, error)
	LatestByStore(ctx context.Context, tenant, storeID string) (*AnalysisReport, error)
	ListByStore(ctx context.Context, tenant, storeID string, page, pageSize int) (Page, error)
}

// Exporter renders a report somewhere humans can open it and returns its location.
type Exporter interface {
	Export(ctx context.Context, r *AnalysisReport) (string, error)
}

// EventKind of a notification
type EventKind string

const (
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Notification is handed to the Notifier after a run finishes or fails.
type Notification struct {
	Recipient string
	Event     EventKind
	Payload   NotificationPayload
}

type NotificationPayload struct {
	RunID        string   `json:"run_id"`
	TenantID     string   `json:"tenant_id"`
	StoreID      string   `json:"store_id"`
	StoreName    string   `json:"store_name"`
	ReportID     ReportID `json:"report_id,omitempty"`
	OverallScore float64  `json:"overall_score,omitempty"`
	Confidence   int      `json:"confidence_percent,omitempty"`
	ReportURL    string   `json:"report_url,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Notifier is fire-and-forget: callers log its error and move on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
