// Package db holds what the SQL report repositories share: the row layout
// of the store_reports table and its conversion to and from a report.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
)

// Row is one store_reports record. The full report lives in ReportJSON; the
// other columns exist for lookups and listings.
type Row struct {
	ID           string
	TenantID     string
	StoreID      string
	StoreName    string
	Tier         string
	OverallScore float64
	Confidence   float64
	ReportJSON   string
	CreatedAt    time.Time
}

// Columns in the order every dialect selects them.
const Columns = "id, tenant_id, store_id, store_name, tier, overall_score, confidence, report_json, created_at"

func FromReport(storeID string, r *analysis.AnalysisReport) (Row, error) {
	if r == nil {
		return Row{}, errors.New("nil report")
	}
	if strings.TrimSpace(string(r.ID)) == "" {
		return Row{}, errors.New("report without id")
	}
	body, err := json.Marshal(r)
	if err != nil {
		return Row{}, fmt.Errorf("encode report: %w", err)
	}
	created := r.CreatedAt.UTC()
	if r.CreatedAt.IsZero() {
		created = time.Now().UTC()
	}
	if storeID == "" {
		storeID = r.StoreID
	}
	return Row{
		ID:           string(r.ID),
		TenantID:     StringOrDash(r.TenantID),
		StoreID:      StringOrDash(storeID),
		StoreName:    StringOrDash(r.StoreName),
		Tier:         StringOrDash(string(r.Tier)),
		OverallScore: r.OverallScore,
		Confidence:   r.Confidence.Aggregate,
		ReportJSON:   string(body),
		CreatedAt:    created,
	}, nil
}

// Args returns the row values in Columns order.
func (row Row) Args() []any {
	return []any{
		row.ID, row.TenantID, row.StoreID, row.StoreName, row.Tier,
		row.OverallScore, row.Confidence, row.ReportJSON, row.CreatedAt,
	}
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanReport reads one row selected with Columns.
func ScanReport(s Scanner) (*analysis.AnalysisReport, error) {
	var row Row
	if err := s.Scan(&row.ID, &row.TenantID, &row.StoreID, &row.StoreName, &row.Tier,
		&row.OverallScore, &row.Confidence, &row.ReportJSON, &row.CreatedAt); err != nil {
		return nil, NotFound(err)
	}
	var r analysis.AnalysisReport
	if err := json.Unmarshal([]byte(row.ReportJSON), &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", row.ID, err)
	}
	// the columns are authoritative
	r.ID = analysis.ReportID(row.ID)
	r.TenantID = row.TenantID
	r.StoreID = row.StoreID
	r.CreatedAt = row.CreatedAt.UTC()
	return &r, nil
}

// NotFound maps sql.ErrNoRows onto the domain sentinel.
func NotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.ErrReportNotFound
	}
	return err
}

// Offset converts a 1-based page into a row offset.
func Offset(page, pageSize int) int {
	if page <= 1 {
		return 0
	}
	return (page - 1) * pageSize
}

// StringOrDash returns "-" when the input is empty/whitespace
func StringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
