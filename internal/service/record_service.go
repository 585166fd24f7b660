package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldworks/worktrack-api/internal/models"
	appErrors "github.com/fieldworks/worktrack-api/pkg/errors"
	"github.com/fieldworks/worktrack-api/pkg/export"
)

type recordRepository interface {
	List(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, int, error)
	ListAll(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, error)
	GetByID(ctx context.Context, id string) (*models.RecordSummaryRow, error)
}

// recordExportHeaders is the fixed column contract for admin exports.
// Order is part of the contract; downstream spreadsheets key on it.
var recordExportHeaders = []string{
	"Record ID", "Activity", "GP Code", "Submitted By", "Submitted At", "Status", "Photo Count",
}

// RecordService serves the admin view over submitted records.
type RecordService struct {
	repo   recordRepository
	logger *zap.Logger
}

// NewRecordService constructs a RecordService.
func NewRecordService(repo recordRepository, logger *zap.Logger) *RecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{repo: repo, logger: logger}
}

// List returns filtered records with pagination metadata.
func (s *RecordService) List(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, *models.Pagination, error) {
	if filter.ActivityType != nil && !filter.ActivityType.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown activity type %q", *filter.ActivityType))
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListAll returns every record matching the filter, unpaginated.
// Export paths use this; the browse path stays on List.
func (s *RecordService) ListAll(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, error) {
	if filter.ActivityType != nil && !filter.ActivityType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown activity type %q", *filter.ActivityType))
	}
	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
	}
	return rows, nil
}

// Get returns one record with the submitter's name resolved.
func (s *RecordService) Get(ctx context.Context, id string) (*models.RecordSummaryRow, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	return record, nil
}

// Dataset flattens records into the fixed export column contract.
func (s *RecordService) Dataset(rows []models.RecordSummaryRow) export.Dataset {
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Record ID":    row.ID,
			"Activity":     string(row.ActivityType),
			"GP Code":      payloadString(row.Payload, "gp_code"),
			"Submitted By": row.SubmitterName,
			"Submitted At": row.SubmittedAt.UTC().Format(time.RFC3339),
			"Status":       string(row.Status),
			"Photo Count":  fmt.Sprintf("%d", countEvidence(row.Payload)),
		})
	}
	return export.Dataset{Headers: recordExportHeaders, Rows: dataRows}
}

func payloadString(payload models.RecordPayload, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// countEvidence counts evidence items across every payload field.
// Evidence round-trips through JSONB as []interface{} of objects
// carrying an evidence_id key.
func countEvidence(payload models.RecordPayload) int {
	count := 0
	for _, value := range payload {
		switch items := value.(type) {
		case []models.CapturedEvidence:
			// Direct model slices appear before any JSON round-trip.
			count += len(items)
		case []interface{}:
			for _, item := range items {
				obj, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				if _, has := obj["evidence_id"]; has {
					count++
				}
			}
		}
	}
	return count
}
