package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldworks/worktrack-api/internal/dto"
	"github.com/fieldworks/worktrack-api/internal/models"
	appErrors "github.com/fieldworks/worktrack-api/pkg/errors"
	"github.com/fieldworks/worktrack-api/pkg/export"
	"github.com/fieldworks/worktrack-api/pkg/response"
)

type recordService interface {
	List(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, *models.Pagination, error)
	ListAll(ctx context.Context, filter models.RecordFilter) ([]models.RecordSummaryRow, error)
	Get(ctx context.Context, id string) (*models.RecordSummaryRow, error)
	Dataset(rows []models.RecordSummaryRow) export.Dataset
}

// RecordHandler exposes admin record browsing endpoints.
type RecordHandler struct {
	service recordService
}

// NewRecordHandler constructs the handler.
func NewRecordHandler(service recordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// List godoc
// @Summary List submitted records
// @Description Filter records by activity, status, submitter, GP code, and date range
// @Tags Records
// @Produce json
// @Param activityType query string false "Activity type"
// @Param status query string false "Record status"
// @Param submittedBy query string false "Submitter user ID"
// @Param gpCode query string false "GP code"
// @Param dateFrom query string false "Start date (YYYY-MM-DD)"
// @Param dateTo query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /records [get]
func (h *RecordHandler) List(c *gin.Context) {
	var req dto.RecordListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}

	filter := models.RecordFilter{
		SubmittedBy: strings.TrimSpace(req.SubmittedBy),
		GPCode:      strings.TrimSpace(req.GPCode),
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}
	if req.ActivityType != "" {
		// Filter values are case-insensitive; stored values are lowercase.
		activity := models.ActivityType(strings.ToLower(req.ActivityType))
		filter.ActivityType = &activity
	}
	if req.Status != "" {
		status := models.RecordStatus(strings.ToLower(req.Status))
		filter.Status = &status
	}

	rows, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Export godoc
// @Summary Export filtered records as CSV
// @Description Streams the current filter as a CSV attachment. For large
// @Description ranges prefer the async export jobs.
// @Tags Records
// @Produce text/csv
// @Param activityType query string false "Activity type"
// @Param status query string false "Record status"
// @Param submittedBy query string false "Submitter user ID"
// @Param gpCode query string false "GP code"
// @Param dateFrom query string false "Start date (YYYY-MM-DD)"
// @Param dateTo query string false "End date (YYYY-MM-DD)"
// @Success 200 {string} string "CSV body"
// @Failure 400 {object} response.Envelope
// @Router /records/export [get]
func (h *RecordHandler) Export(c *gin.Context) {
	var req dto.RecordListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}

	filter := models.RecordFilter{
		SubmittedBy: strings.TrimSpace(req.SubmittedBy),
		GPCode:      strings.TrimSpace(req.GPCode),
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
	}
	if req.ActivityType != "" {
		activity := models.ActivityType(strings.ToLower(req.ActivityType))
		filter.ActivityType = &activity
	}
	if req.Status != "" {
		status := models.RecordStatus(strings.ToLower(req.Status))
		filter.Status = &status
	}

	rows, err := h.service.ListAll(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	body, err := export.NewCSVExporter().Render(h.service.Dataset(rows))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}

	filename := fmt.Sprintf("records-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", body)
}

// Get godoc
// @Summary Get one record
// @Tags Records
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/{id} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
