package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldworks/worktrack-api/internal/capture"
	"github.com/fieldworks/worktrack-api/internal/dto"
	"github.com/fieldworks/worktrack-api/internal/models"
	"github.com/fieldworks/worktrack-api/internal/service"
	"github.com/fieldworks/worktrack-api/internal/session"
	appErrors "github.com/fieldworks/worktrack-api/pkg/errors"
	"github.com/fieldworks/worktrack-api/pkg/response"
)

// maxFrameBytes caps a single uploaded evidence frame.
const maxFrameBytes = 10 << 20

type sessionService interface {
	Open(ctx context.Context, activity models.ActivityType, userID string) (*service.SessionView, error)
	Get(ctx context.Context, id, userID string) (*service.SessionView, error)
	Apply(ctx context.Context, id, userID string, action session.Action) (*service.SessionView, error)
	CaptureEvidence(ctx context.Context, id, userID string, req service.CaptureRequest) (*service.SessionView, error)
	Submit(ctx context.Context, id, userID string, meta service.SubmitMeta) (*models.MaintenanceRecord, *session.Report, error)
	Discard(ctx context.Context, id, userID string) error
}

// SessionHandler exposes the interactive form session endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Open godoc
// @Summary Open a form session
// @Description Start a new capture session for the given activity type
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.OpenSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Open(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "activity is required"))
		return
	}
	view, err := h.service.Open(c.Request.Context(), req.Activity, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, view, nil)
}

// Get godoc
// @Summary Get session state
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Apply godoc
// @Summary Apply a form action
// @Description Set a field, toggle a gate, or edit a repeatable list row
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SessionActionRequest true "Action payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/actions [post]
func (h *SessionHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SessionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid action payload"))
		return
	}
	if req.Kind == session.ActionAppendEvidence {
		// Evidence enters through the capture endpoint only.
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "evidence is appended via the evidence endpoint"))
		return
	}

	action := session.Action{Kind: req.Kind, Field: req.Field, Value: req.Value, Patch: session.Row(req.Patch)}
	if req.Index != nil {
		action.Index = *req.Index
	}

	view, err := h.service.Apply(c.Request.Context(), c.Param("id"), claims.UserID, action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// CaptureEvidence godoc
// @Summary Capture photo evidence
// @Description Attach a captured frame with GPS position to an evidence field
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param field formData string true "Evidence field name"
// @Param deviceKey formData string false "Camera device key"
// @Param facing formData string false "Camera facing (back|front)"
// @Param latitude formData number false "Latitude"
// @Param longitude formData number false "Longitude"
// @Param frame formData file true "Captured frame (JPEG or PNG)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/evidence [post]
func (h *SessionHandler) CaptureEvidence(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CaptureEvidenceRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "field is required"))
		return
	}

	facing := capture.FacingBack
	if req.Facing != "" {
		switch strings.ToLower(req.Facing) {
		case string(capture.FacingBack):
			facing = capture.FacingBack
		case string(capture.FacingFront):
			facing = capture.FacingFront
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "facing must be back or front"))
			return
		}
	}

	fileHeader, err := c.FormFile("frame")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "frame is required"))
		return
	}
	if fileHeader.Size > maxFrameBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "frame exceeds maximum size"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open frame"))
		return
	}
	defer src.Close()
	frame, err := io.ReadAll(io.LimitReader(src, maxFrameBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read frame"))
		return
	}

	captureReq := service.CaptureRequest{
		Field:     req.Field,
		DeviceKey: req.DeviceKey,
		Facing:    facing,
		Frame:     frame,
	}
	if req.Latitude != nil && req.Longitude != nil {
		captureReq.Position = &models.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	view, err := h.service.CaptureEvidence(c.Request.Context(), c.Param("id"), claims.UserID, captureReq)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Submit godoc
// @Summary Submit the session
// @Description Validate the whole form and persist it as a maintenance record
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	meta := service.SubmitMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	record, report, err := h.service.Submit(c.Request.Context(), c.Param("id"), claims.UserID, meta)
	if err != nil {
		appErr := appErrors.FromError(err)
		envelope := response.Envelope{Error: appErr}
		if report != nil {
			// A rejected submission carries the complete validation
			// report so the client can surface every problem at once.
			envelope.Data = dto.SubmitFailureResponse{Report: *report}
		}
		c.Header("Cache-Control", "no-store")
		c.JSON(appErr.Status, envelope)
		return
	}

	response.JSON(c, http.StatusCreated, dto.SubmitResponse{
		RecordID:    record.ID,
		SubmittedAt: record.SubmittedAt.UTC().Format(time.RFC3339),
		Status:      string(record.Status),
	}, nil)
}

// Discard godoc
// @Summary Discard the session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Discard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Discard(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
