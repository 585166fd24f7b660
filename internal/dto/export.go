package dto

import (
	"time"

	"github.com/fieldworks/worktrack-api/internal/models"
)

// ExportRequest queues a new export over the admin record filter.
type ExportRequest struct {
	Format       models.ExportFormat `json:"format" binding:"required"`
	ActivityType string              `json:"activityType"`
	Status       string              `json:"status"`
	SubmittedBy  string              `json:"submittedBy"`
	GPCode       string              `json:"gpCode"`
	DateFrom     *time.Time          `json:"dateFrom"`
	DateTo       *time.Time          `json:"dateTo"`
}

// ExportJobResponse acknowledges job creation.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse reports job progress and result location.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
