package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

var created = time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

var columns = []string{"id", "tenant_id", "store_id", "store_name", "tier", "overall_score", "confidence", "report_json", "created_at"}

func sampleReport() *analysis.AnalysisReport {
	return &analysis.AnalysisReport{
		ID:           "rep-1",
		TenantID:     "acme",
		StoreID:      "s1",
		StoreName:    "فروشگاه نمونه",
		Tier:         store.TierProfessional,
		OverallScore: 72.5,
		Confidence:   analysis.ConfidenceScore{Aggregate: 0.8},
		CreatedAt:    created,
	}
}

func reportRow(t *testing.T, r *analysis.AnalysisReport) []any {
	body, err := json.Marshal(r)
	require.NoError(t, err)
	return []any{string(r.ID), r.TenantID, r.StoreID, r.StoreName, string(r.Tier), r.OverallScore, 0.8, string(body), r.CreatedAt}
}

func TestSaveInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rep := sampleReport()
	mock.ExpectExec("INSERT INTO store_reports").
		WithArgs("rep-1", "acme", "s1", rep.StoreName, "professional", 72.5, 0.8, sqlmock.AnyArg(), created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := NewReportRepository(db).Save(context.Background(), "s1", rep)
	require.NoError(t, err)
	assert.Equal(t, analysis.ReportID("rep-1"), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO store_reports").
		WillReturnError(&driver.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err = NewReportRepository(db).Save(context.Background(), "s1", sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already stored")
}

func TestGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewReportRepository(db)

	rep := sampleReport()
	mock.ExpectQuery("SELECT (.+) FROM store_reports WHERE tenant_id=\\? AND id=\\?").
		WithArgs("acme", "rep-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(reportRow(t, rep)...))

	got, err := repo.Get(context.Background(), "acme", "rep-1")
	require.NoError(t, err)
	assert.Equal(t, rep.StoreName, got.StoreName)
	assert.Equal(t, 72.5, got.OverallScore)
	assert.Equal(t, created, got.CreatedAt)

	mock.ExpectQuery("SELECT (.+) FROM store_reports").
		WithArgs("acme", "missing").
		WillReturnRows(sqlmock.NewRows(columns))
	_, err = repo.Get(context.Background(), "acme", "missing")
	assert.ErrorIs(t, err, analysis.ErrReportNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestByStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rep := sampleReport()
	mock.ExpectQuery("ORDER BY created_at DESC, id DESC\\s+LIMIT 1").
		WithArgs("acme", "s1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(reportRow(t, rep)...))

	got, err := NewReportRepository(db).LatestByStore(context.Background(), "acme", "s1")
	require.NoError(t, err)
	assert.Equal(t, analysis.ReportID("rep-1"), got.ID)
}

func TestListByStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	older := sampleReport()
	older.ID = "rep-0"
	older.CreatedAt = created.Add(-time.Hour)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM store_reports").
		WithArgs("acme", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("LIMIT \\? OFFSET \\?").
		WithArgs("acme", "s1", 2, 2).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(reportRow(t, older)...))

	page, err := NewReportRepository(db).ListByStore(context.Background(), "acme", "s1", 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, analysis.ReportID("rep-0"), page.Data[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStoreCountError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection reset"))
	_, err = NewReportRepository(db).ListByStore(context.Background(), "acme", "s1", 1, 20)
	assert.ErrorContains(t, err, "getting total count")
}

func TestDSN(t *testing.T) {
	dsn := Options{Host: "db", Port: 3306, User: "u", Password: "p", Name: "storelens"}.DSN()
	assert.Contains(t, dsn, "u:p@tcp(db:3306)/storelens")
	assert.Contains(t, dsn, "parseTime=true")
}
