package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldworks/worktrack-api/internal/models"
)

// RecordRepository persists submitted maintenance records.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create inserts a submitted record. submitted_at is assigned by the
// database clock, never by the caller; the stored value is read back
// into the record.
func (r *RecordRepository) Create(ctx context.Context, record *models.MaintenanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = models.RecordStatusPending
	}
	const query = `INSERT INTO maintenance_records (id, activity_type, payload, submitted_by, submitted_at, status)
VALUES ($1, $2, $3, $4, NOW(), $5) RETURNING submitted_at`
	if err := r.db.GetContext(ctx, &record.SubmittedAt, query, record.ID, record.ActivityType, record.Payload, record.SubmittedBy, record.Status); err != nil {
		return fmt.Errorf("create maintenance record: %w", err)
	}
	return nil
}

// GetByID returns a record joined with its submitter's name.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*models.RecordSummaryRow, error) {
	const query = `SELECT mr.id, mr.activity_type, mr.payload, mr.submitted_by, mr.submitted_at, mr.status, u.full_name AS submitter_name
FROM maintenance_records mr JOIN users u ON u.id = mr.submitted_by WHERE mr.id = $1 LIMIT 1`
	var row models.RecordSummaryRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get maintenance record: %w", err)
	}
	return &row, nil
}

func recordConditions(filter models.RecordFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.ActivityType != nil {
		conditions = append(conditions, fmt.Sprintf("mr.activity_type = $%d", len(args)+1))
		args = append(args, *filter.ActivityType)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("mr.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.SubmittedBy != "" {
		conditions = append(conditions, fmt.Sprintf("mr.submitted_by = $%d", len(args)+1))
		args = append(args, filter.SubmittedBy)
	}
	if filter.GPCode != "" {
		// gp_code lives inside the JSONB payload; substring match so
		// admins can narrow by code prefix.
		conditions = append(conditions, fmt.Sprintf("mr.payload->>'gp_code' ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.GPCode+"%")
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("mr.submitted_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("mr.submitted_at <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	return conditions, args
}

// List returns filtered records with total count, newest first.
func (r *RecordRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, int, error) {
	baseQuery := `FROM maintenance_records mr JOIN users u ON u.id = mr.submitted_by WHERE 1=1`
	conditions, args := recordConditions(filter)
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT mr.id, mr.activity_type, mr.payload, mr.submitted_by, mr.submitted_at, mr.status, u.full_name AS submitter_name %s ORDER BY mr.submitted_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var rows []models.RecordSummaryRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list maintenance records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count maintenance records: %w", err)
	}

	return rows, total, nil
}

// ListAll returns every record matching the filter without pagination,
// oldest first. Export jobs stream the full result set.
func (r *RecordRepository) ListAll(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, error) {
	baseQuery := `FROM maintenance_records mr JOIN users u ON u.id = mr.submitted_by WHERE 1=1`
	conditions, args := recordConditions(filter)
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT mr.id, mr.activity_type, mr.payload, mr.submitted_by, mr.submitted_at, mr.status, u.full_name AS submitter_name %s ORDER BY mr.submitted_at ASC", baseQuery)

	var rows []models.RecordSummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list all maintenance records: %w", err)
	}
	return rows, nil
}

// CountTotal returns the total number of records.
func (r *RecordRepository) CountTotal(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM maintenance_records`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return total, nil
}

// CountByActivity aggregates record counts per activity type.
func (r *RecordRepository) CountByActivity(ctx context.Context) ([]models.ActivityCount, error) {
	const query = `SELECT activity_type, COUNT(*) AS count FROM maintenance_records GROUP BY activity_type ORDER BY activity_type`
	var counts []models.ActivityCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count records by activity: %w", err)
	}
	return counts, nil
}

// CountByStatus aggregates record counts per lifecycle status.
func (r *RecordRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM maintenance_records GROUP BY status ORDER BY status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count records by status: %w", err)
	}
	return counts, nil
}

// CountDailySince returns submissions per day from the cutoff onward.
func (r *RecordRepository) CountDailySince(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	const query = `SELECT DATE_TRUNC('day', submitted_at) AS day, COUNT(*) AS count FROM maintenance_records WHERE submitted_at >= $1 GROUP BY day ORDER BY day`
	var counts []models.DailyCount
	if err := r.db.SelectContext(ctx, &counts, query, since); err != nil {
		return nil, fmt.Errorf("count daily records: %w", err)
	}
	return counts, nil
}
