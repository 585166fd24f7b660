package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/worktrack-api/internal/models"
)

func newRecordRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRecordRepositoryCreateUsesServerClock(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	submittedAt := time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO maintenance_records")).
		WithArgs(sqlmock.AnyArg(), "preventive_maintenance", sqlmock.AnyArg(), "user-1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"submitted_at"}).AddRow(submittedAt))

	record := &models.MaintenanceRecord{
		ActivityType: models.ActivityPreventiveMaintenance,
		Payload:      models.RecordPayload{"gp_code": "GP-104"},
		SubmittedBy:  "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.Equal(t, models.RecordStatusPending, record.Status)
	require.Equal(t, submittedAt, record.SubmittedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "activity_type", "payload", "submitted_by", "submitted_at", "status", "submitter_name"}).
		AddRow("rec-1", "fiber_cut_restoration", `{"gp_code":"GP-104"}`, "user-1", time.Now(), "pending", "Asha Verma")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT mr.id, mr.activity_type, mr.payload, mr.submitted_by, mr.submitted_at, mr.status, u.full_name AS submitter_name FROM maintenance_records mr JOIN users u ON u.id = mr.submitted_by WHERE 1=1 AND mr.activity_type = $1 AND mr.payload->>'gp_code' ILIKE $2 ORDER BY mr.submitted_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("fiber_cut_restoration", "%GP-104%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM maintenance_records mr JOIN users u ON u.id = mr.submitted_by WHERE 1=1 AND mr.activity_type = $1 AND mr.payload->>'gp_code' ILIKE $2")).
		WithArgs("fiber_cut_restoration", "%GP-104%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	activity := models.ActivityFiberCutRestoration
	records, total, err := repo.List(context.Background(), models.RecordFilter{
		ActivityType: &activity,
		GPCode:       "GP-104",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, records, 1)
	require.Equal(t, "Asha Verma", records[0].SubmitterName)
	require.Equal(t, "GP-104", records[0].Payload["gp_code"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "activity_type", "payload", "submitted_by", "submitted_at", "status", "submitter_name"}).
		AddRow("rec-1", "site_inspection", `{"gp_code":"GP-002","battery_checked":true}`, "user-2", time.Now(), "pending", "Ravi Kumar")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT mr.id, mr.activity_type, mr.payload, mr.submitted_by, mr.submitted_at, mr.status, u.full_name AS submitter_name FROM maintenance_records mr JOIN users u ON u.id = mr.submitted_by WHERE mr.id = $1 LIMIT 1")).
		WithArgs("rec-1").
		WillReturnRows(rows)

	record, err := repo.GetByID(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Equal(t, models.ActivitySiteInspection, record.ActivityType)
	require.Equal(t, true, record.Payload["battery_checked"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryDashboardCounts(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM maintenance_records")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	total, err := repo.CountTotal(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, total)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT activity_type, COUNT(*) AS count FROM maintenance_records GROUP BY activity_type")).
		WillReturnRows(sqlmock.NewRows([]string{"activity_type", "count"}).
			AddRow("patrolling", 12).
			AddRow("preventive_maintenance", 30))
	byActivity, err := repo.CountByActivity(context.Background())
	require.NoError(t, err)
	require.Len(t, byActivity, 2)

	since := time.Now().AddDate(0, 0, -7)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DATE_TRUNC('day', submitted_at) AS day, COUNT(*) AS count FROM maintenance_records WHERE submitted_at >= $1 GROUP BY day ORDER BY day")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).AddRow(time.Now().Truncate(24*time.Hour), 5))
	daily, err := repo.CountDailySince(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
