package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/infra/db"
)

// ReportRepository keeps reports in a single SQLite file. Used by the CLI
// and by single-node deployments.
type ReportRepository struct {
	db *sql.DB
}

// Open creates the database file (and its directory) when needed and
// applies the schema. ":memory:" gives a private in-memory database.
func Open(path string) (*ReportRepository, error) {
	memory := path == ":memory:" || strings.Contains(path, "mode=memory")
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if memory {
		// every new connection would see a different empty database
		conn.SetMaxOpenConns(1)
	}

	r := &ReportRepository{db: conn}
	if err := r.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database connection
func (r *ReportRepository) Close() error {
	return r.db.Close()
}

func (r *ReportRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS store_reports (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		store_name TEXT NOT NULL,
		tier TEXT NOT NULL,
		overall_score REAL NOT NULL,
		confidence REAL NOT NULL,
		report_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_store_reports_store ON store_reports(tenant_id, store_id, created_at);
	`
	if _, err := r.db.Exec(schema); err != nil {
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
	q := `INSERT INTO store_reports (` + db.Columns + `) VALUES (?,?,?,?,?,?,?,?,?)`
	if _, err := r.db.ExecContext(ctx, q, row.Args()...); err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return analysis.ReportID(row.ID), nil
}

func (r *ReportRepository) Get(ctx context.Context, tenant string, id analysis.ReportID) (*analysis.AnalysisReport, error) {
	q := `SELECT ` + db.Columns + ` FROM store_reports WHERE tenant_id = ? AND id = ?`
	return db.ScanReport(r.db.QueryRowContext(ctx, q, tenant, string(id)))
}

func (r *ReportRepository) LatestByStore(ctx context.Context, tenant, storeID string) (*analysis.AnalysisReport, error) {
	q := `SELECT ` + db.Columns + ` FROM store_reports
		WHERE tenant_id = ? AND store_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`
	return db.ScanReport(r.db.QueryRowContext(ctx, q, tenant, storeID))
}

func (r *ReportRepository) ListByStore(ctx context.Context, tenant, storeID string, page, pageSize int) (analysis.Page, error) {
	page, pageSize = analysis.NormalizePage(page, pageSize)

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM store_reports WHERE tenant_id = ? AND store_id = ?`, tenant, storeID,
	).Scan(&total); err != nil {
		return analysis.Page{}, fmt.Errorf("count reports: %w", err)
	}

	q := `SELECT ` + db.Columns + ` FROM store_reports
		WHERE tenant_id = ? AND store_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, tenant, storeID, pageSize, db.Offset(page, pageSize))
	if err != nil {
		return analysis.Page{}, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []*analysis.AnalysisReport
	for rows.Next() {
		rep, err := db.ScanReport(rows)
		if err != nil {
			return analysis.Page{}, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return analysis.Page{}, err
	}
	return analysis.NewPage(out, page, pageSize, total), nil
}

// Ping for the health checker
func (r *ReportRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
