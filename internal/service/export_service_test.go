package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldworks/worktrack-api/internal/dto"
	"github.com/fieldworks/worktrack-api/internal/models"
	"github.com/fieldworks/worktrack-api/internal/repository"
	appErrors "github.com/fieldworks/worktrack-api/pkg/errors"
	"github.com/fieldworks/worktrack-api/pkg/jobs"
	"github.com/fieldworks/worktrack-api/pkg/storage"
)

type mockExportRecordLister struct {
	rows []models.RecordSummaryRow
	err  error
}

func (m *mockExportRecordLister) ListAll(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

type memoryStorage struct {
	files map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}}
}

func (m *memoryStorage) Save(filename string, data []byte) (string, error) {
	m.files[filename] = data
	return filename, nil
}

func (m *memoryStorage) Open(filename string) (*os.File, error) {
	return nil, errors.New("not supported in memory storage")
}

func (m *memoryStorage) Delete(filename string) error {
	delete(m.files, filename)
	return nil
}

func (m *memoryStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func sampleRecordRows() []models.RecordSummaryRow {
	return []models.RecordSummaryRow{
		{
			MaintenanceRecord: models.MaintenanceRecord{
				ID:           "rec-1",
				ActivityType: models.ActivityPreventiveMaintenance,
				Payload:      models.RecordPayload{"gp_code": "GP104"},
				SubmittedBy:  "user-1",
				SubmittedAt:  time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC),
				Status:       models.RecordStatusPending,
			},
			SubmitterName: "Asha Verma",
		},
	}
}

func newTestExportService(lister exportRecordLister, store fileStorage) *ExportService {
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	records := NewRecordService(nil, zap.NewNop())
	return NewExportService(lister, records, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)
}

func TestExportServiceGenerateCSV(t *testing.T) {
	store := newMemoryStorage()
	svc := newTestExportService(&mockExportRecordLister{rows: sampleRecordRows()}, store)

	job := &models.ExportJob{ID: "job-1", Params: models.ExportJobParams{Format: models.ExportFormatCSV}}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/download/"))

	data, ok := store.files[result.RelativePath]
	require.True(t, ok)
	content := string(data)
	assert.Contains(t, content, "Record ID,Activity,GP Code,Submitted By,Submitted At,Status,Photo Count")
	assert.Contains(t, content, "rec-1,preventive_maintenance,GP104,Asha Verma,2026-08-27T09:00:00Z,pending,0")

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestExportServiceGeneratePDF(t *testing.T) {
	store := newMemoryStorage()
	svc := newTestExportService(&mockExportRecordLister{rows: sampleRecordRows()}, store)

	activity := models.ActivityPreventiveMaintenance
	job := &models.ExportJob{ID: "job-2", Params: models.ExportJobParams{Format: models.ExportFormatPDF, ActivityType: &activity}}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.RelativePath, ".pdf"))
	assert.NotEmpty(t, store.files[result.RelativePath])
}

func TestExportServiceGenerateUnsupportedFormat(t *testing.T) {
	svc := newTestExportService(&mockExportRecordLister{}, newMemoryStorage())
	job := &models.ExportJob{ID: "job-3", Params: models.ExportJobParams{Format: models.ExportFormat("xlsx")}}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}

type mockExportJobStore struct {
	jobs    map[string]*models.ExportJob
	updates []repository.UpdateExportJobParams
}

func newMockExportJobStore() *mockExportJobStore {
	return &mockExportJobStore{jobs: map[string]*models.ExportJob{}}
}

func (m *mockExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *mockExportJobStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, errors.New("missing")
	}
	return job, nil
}

func (m *mockExportJobStore) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	m.updates = append(m.updates, params)
	job, ok := m.jobs[id]
	if ok {
		if params.Status != nil {
			job.Status = *params.Status
		}
		if params.Progress != nil {
			job.Progress = *params.Progress
		}
		if params.ResultURL != nil {
			job.ResultURL = params.ResultURL
		}
	}
	return nil
}

func (m *mockExportJobStore) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range m.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (m *mockExportJobStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func TestExportJobServiceCreateJobEnqueues(t *testing.T) {
	repo := newMockExportJobStore()
	queue := &mockDispatcher{}
	svc := NewExportJobService(repo, queue, nil, &mockAuditStore{}, zap.NewNop(), ExportJobServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{Format: models.ExportFormatCSV, ActivityType: "patrolling"}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
}

func TestExportJobServiceCreateJobRejectsUnknownActivity(t *testing.T) {
	svc := NewExportJobService(newMockExportJobStore(), &mockDispatcher{}, nil, nil, zap.NewNop(), ExportJobServiceConfig{})
	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{Format: models.ExportFormatCSV, ActivityType: "bogus"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceCreateJobMarksFailedWhenEnqueueFails(t *testing.T) {
	repo := newMockExportJobStore()
	queue := &mockDispatcher{err: errors.New("queue stopped")}
	svc := NewExportJobService(repo, queue, nil, nil, zap.NewNop(), ExportJobServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{Format: models.ExportFormatPDF}, "admin-1")
	require.Error(t, err)
	require.NotEmpty(t, repo.updates)
	assert.Equal(t, models.ExportStatusFailed, *repo.updates[len(repo.updates)-1].Status)
}

func TestExportWorkerHandleSuccess(t *testing.T) {
	repo := newMockExportJobStore()
	job := &models.ExportJob{ID: "job-9", Params: models.ExportJobParams{Format: models.ExportFormatCSV}, Status: models.ExportStatusQueued}
	repo.jobs[job.ID] = job

	store := newMemoryStorage()
	exporter := newTestExportService(&mockExportRecordLister{rows: sampleRecordRows()}, store)
	worker := NewExportWorker(repo, exporter, 3, zap.NewNop())

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-9"}))
	assert.Equal(t, models.ExportStatusFinished, repo.jobs["job-9"].Status)
	assert.Equal(t, 100, repo.jobs["job-9"].Progress)
	require.NotNil(t, repo.jobs["job-9"].ResultURL)
}

func TestExportWorkerHandleFailureRequeuesThenFails(t *testing.T) {
	repo := newMockExportJobStore()
	job := &models.ExportJob{ID: "job-9", Params: models.ExportJobParams{Format: models.ExportFormatCSV}, Status: models.ExportStatusQueued}
	repo.jobs[job.ID] = job

	exporter := newTestExportService(&mockExportRecordLister{err: errors.New("db down")}, newMemoryStorage())
	worker := NewExportWorker(repo, exporter, 2, zap.NewNop())

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-9", Attempt: 0}))
	assert.Equal(t, models.ExportStatusQueued, repo.jobs["job-9"].Status)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-9", Attempt: 2}))
	assert.Equal(t, models.ExportStatusFailed, repo.jobs["job-9"].Status)
}
