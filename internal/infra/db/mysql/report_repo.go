package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/infra/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS store_reports (
  id            VARCHAR(64)  NOT NULL PRIMARY KEY,
  tenant_id     VARCHAR(128) NOT NULL,
  store_id      VARCHAR(128) NOT NULL,
  store_name    VARCHAR(255) NOT NULL,
  tier          VARCHAR(32)  NOT NULL,
  overall_score DOUBLE       NOT NULL,
  confidence    DOUBLE       NOT NULL,
  report_json   JSON         NOT NULL,
  created_at    DATETIME(6)  NOT NULL,
  INDEX idx_store_reports_store (tenant_id, store_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Migrate creates the store_reports table when missing.
func (r *ReportRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate store_reports: %w", err)
	}
	return nil
}

// Save inserts a new report. Reports are never updated in place.
func (r *ReportRepository) Save(ctx context.Context, storeID string, rep *analysis.AnalysisReport) (analysis.ReportID, error) {
	row, err := db.FromReport(storeID, rep)
	if err != nil {
		return "", err
	}
	const q = `
INSERT INTO store_reports
  (` + db.Columns + `)
VALUES (?,?,?,?,?,?,?,?,?);`
	if _, err := r.db.ExecContext(ctx, q, row.Args()...); err != nil {
		if isDuplicateKey(err) {
			return "", fmt.Errorf("report %s already stored: %w", row.ID, err)
		}
		return "", fmt.Errorf("insert report: %w", err)
	}
	return analysis.ReportID(row.ID), nil
}

// Get by ID + Tenant
func (r *ReportRepository) Get(ctx context.Context, tenant string, id analysis.ReportID) (*analysis.AnalysisReport, error) {
	const q = `
SELECT ` + db.Columns + `
FROM store_reports
WHERE tenant_id=? AND id=? LIMIT 1;`
	return db.ScanReport(r.db.QueryRowContext(ctx, q, tenant, string(id)))
}

// LatestByStore returns the newest report for one store.
func (r *ReportRepository) LatestByStore(ctx context.Context, tenant, storeID string) (*analysis.AnalysisReport, error) {
	const q = `
SELECT ` + db.Columns + `
FROM store_reports
WHERE tenant_id=? AND store_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	return db.ScanReport(r.db.QueryRowContext(ctx, q, tenant, storeID))
}

// ListByStore with offset + limit (classic pagination), newest first
func (r *ReportRepository) ListByStore(ctx context.Context, tenant, storeID string, page, pageSize int) (analysis.Page, error) {
	page, pageSize = analysis.NormalizePage(page, pageSize)

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM store_reports WHERE tenant_id=? AND store_id=?", tenant, storeID,
	).Scan(&total); err != nil {
		return analysis.Page{}, fmt.Errorf("getting total count: %w", err)
	}

	const q = `
SELECT ` + db.Columns + `
FROM store_reports
WHERE tenant_id=? AND store_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, tenant, storeID, pageSize, db.Offset(page, pageSize))
	if err != nil {
		return analysis.Page{}, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var out []*analysis.AnalysisReport
	for rows.Next() {
		rep, err := db.ScanReport(rows)
		if err != nil {
			return analysis.Page{}, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return analysis.Page{}, fmt.Errorf("iterating rows: %w", err)
	}
	return analysis.NewPage(out, page, pageSize, total), nil
}

// Ping for the health checker
func (r *ReportRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
