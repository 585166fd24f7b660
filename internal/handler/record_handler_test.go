package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/worktrack-api/internal/models"
	"github.com/fieldworks/worktrack-api/pkg/export"
)

type recordServiceMock struct {
	rows       []models.RecordSummaryRow
	pagination *models.Pagination
	err        error
	lastFilter models.RecordFilter
}

func (m *recordServiceMock) List(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, *models.Pagination, error) {
	m.lastFilter = filter
	return m.rows, m.pagination, m.err
}

func (m *recordServiceMock) ListAll(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, error) {
	m.lastFilter = filter
	return m.rows, m.err
}

func (m *recordServiceMock) Get(ctx context.Context, id string) (*models.RecordSummaryRow, error) {
	if len(m.rows) == 0 {
		return nil, m.err
	}
	return &m.rows[0], m.err
}

func (m *recordServiceMock) Dataset(rows []models.RecordSummaryRow) export.Dataset {
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{"Record ID": row.ID, "Activity": string(row.ActivityType)})
	}
	return export.Dataset{Headers: []string{"Record ID", "Activity"}, Rows: dataRows}
}

func sampleRecordRow(id string) models.RecordSummaryRow {
	return models.RecordSummaryRow{
		MaintenanceRecord: models.MaintenanceRecord{
			ID:           id,
			ActivityType: models.ActivityPatrolling,
			Payload:      models.RecordPayload{"gp_code": "GP001"},
			SubmittedBy:  "user-1",
			SubmittedAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
			Status:       models.RecordStatusPending,
		},
		SubmitterName: "Field Engineer",
	}
}

func TestRecordHandlerListMapsFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &recordServiceMock{
		rows:       []models.RecordSummaryRow{sampleRecordRow("rec-1")},
		pagination: &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1},
	}
	handler := NewRecordHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/records?activityType=PATROLLING&status=Pending&gpCode=GP001&page=1", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastFilter.ActivityType)
	require.Equal(t, models.ActivityPatrolling, *mockSvc.lastFilter.ActivityType)
	require.NotNil(t, mockSvc.lastFilter.Status)
	require.Equal(t, models.RecordStatusPending, *mockSvc.lastFilter.Status)
	require.Equal(t, "GP001", mockSvc.lastFilter.GPCode)
}

func TestRecordHandlerExportStreamsCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &recordServiceMock{rows: []models.RecordSummaryRow{sampleRecordRow("rec-1"), sampleRecordRow("rec-2")}}
	handler := NewRecordHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/records/export?activityType=PATROLLING", nil)

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	require.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Record ID,Activity", strings.TrimSpace(lines[0]))
	require.Contains(t, lines[1], "rec-1")
}

func TestRecordHandlerExportRejectsBadQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &recordServiceMock{}
	handler := NewRecordHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/records/export?page=x", nil)

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
