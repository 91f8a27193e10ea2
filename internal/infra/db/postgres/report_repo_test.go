package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

var created = time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

func sampleRow(t *testing.T, id string, at time.Time) []any {
	rep := analysis.AnalysisReport{ID: analysis.ReportID(id), TenantID: "acme", StoreID: "s1", StoreName: "x", Tier: store.TierBasic, CreatedAt: at}
	body, err := json.Marshal(rep)
	require.NoError(t, err)
	return []any{id, "acme", "s1", "x", "basic", 40.0, 0.3, string(body), at}
}

var columns = []string{"id", "tenant_id", "store_id", "store_name", "tier", "overall_score", "confidence", "report_json", "created_at"}

func TestSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rep := &analysis.AnalysisReport{ID: "rep-1", TenantID: "acme", StoreName: "x", Tier: store.TierBasic, OverallScore: 40, CreatedAt: created}
	mock.ExpectExec("INSERT INTO store_reports").
		WithArgs("rep-1", "acme", "s1", "x", "basic", 40.0, 0.0, sqlmock.AnyArg(), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := NewReportRepository(db).Save(context.Background(), "s1", rep)
	require.NoError(t, err)
	assert.Equal(t, analysis.ReportID("rep-1"), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO store_reports").WillReturnError(&pq.Error{Code: "23505"})
	_, err = NewReportRepository(db).Save(context.Background(), "s1", &analysis.AnalysisReport{ID: "rep-1"})
	assert.ErrorContains(t, err, "already stored")
}

func TestSaveRejectsReportWithoutID(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewReportRepository(db).Save(context.Background(), "s1", &analysis.AnalysisReport{})
	assert.Error(t, err)
}

func TestGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("WHERE tenant_id=\\$1 AND id=\\$2").
		WithArgs("acme", "nope").
		WillReturnRows(sqlmock.NewRows(columns))
	_, err = NewReportRepository(db).Get(context.Background(), "acme", "nope")
	assert.ErrorIs(t, err, analysis.ErrReportNotFound)
}

func TestListByStoreNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs("acme", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("LIMIT \\$3 OFFSET \\$4").
		WithArgs("acme", "s1", 20, 0).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(sampleRow(t, "new", created)...).
			AddRow(sampleRow(t, "old", created.Add(-time.Hour))...))

	page, err := NewReportRepository(db).ListByStore(context.Background(), "acme", "s1", 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, analysis.ReportID("new"), page.Data[0].ID)
	assert.Equal(t, 1, page.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	dsn := Options{Host: "pg", Port: 5432, User: "u", Password: "p@ss", Name: "storelens"}.DSN()
	assert.Equal(t, "postgres://u:p%40ss@pg:5432/storelens?sslmode=disable", dsn)
}
