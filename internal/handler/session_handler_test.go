package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/worktrack-api/internal/dto"
	"github.com/fieldworks/worktrack-api/internal/middleware"
	"github.com/fieldworks/worktrack-api/internal/models"
	"github.com/fieldworks/worktrack-api/internal/service"
	"github.com/fieldworks/worktrack-api/internal/session"
	appErrors "github.com/fieldworks/worktrack-api/pkg/errors"
)

type sessionServiceMock struct {
	view      *service.SessionView
	viewErr   error
	record    *models.MaintenanceRecord
	report    *session.Report
	submitErr error
	applied   []session.Action
}

func (m *sessionServiceMock) Open(ctx context.Context, activity models.ActivityType, userID string) (*service.SessionView, error) {
	return m.view, m.viewErr
}

func (m *sessionServiceMock) Get(ctx context.Context, id, userID string) (*service.SessionView, error) {
	return m.view, m.viewErr
}

func (m *sessionServiceMock) Apply(ctx context.Context, id, userID string, action session.Action) (*service.SessionView, error) {
	m.applied = append(m.applied, action)
	return m.view, m.viewErr
}

func (m *sessionServiceMock) CaptureEvidence(ctx context.Context, id, userID string, req service.CaptureRequest) (*service.SessionView, error) {
	return m.view, m.viewErr
}

func (m *sessionServiceMock) Submit(ctx context.Context, id, userID string, meta service.SubmitMeta) (*models.MaintenanceRecord, *session.Report, error) {
	return m.record, m.report, m.submitErr
}

func (m *sessionServiceMock) Discard(ctx context.Context, id, userID string) error {
	return m.viewErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func engineerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleEngineer}
}

func TestSessionHandlerOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sessionServiceMock{view: &service.SessionView{ID: "sess-1", Activity: models.ActivityPatrolling}}
	handler := NewSessionHandler(mockSvc)

	payload, _ := json.Marshal(dto.OpenSessionRequest{Activity: models.ActivityPatrolling})
	c, w := newGinContext(http.MethodPost, "/sessions", payload)
	c.Set(middleware.ContextUserKey, engineerClaims())

	handler.Open(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestSessionHandlerOpenRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(&sessionServiceMock{})

	payload, _ := json.Marshal(dto.OpenSessionRequest{Activity: models.ActivityPatrolling})
	c, w := newGinContext(http.MethodPost, "/sessions", payload)

	handler.Open(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandlerApplyRejectsEvidenceAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sessionServiceMock{view: &service.SessionView{ID: "sess-1"}}
	handler := NewSessionHandler(mockSvc)

	payload, _ := json.Marshal(dto.SessionActionRequest{Kind: session.ActionAppendEvidence, Field: "route_photos"})
	c, w := newGinContext(http.MethodPost, "/sessions/sess-1/actions", payload)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}
	c.Set(middleware.ContextUserKey, engineerClaims())

	handler.Apply(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, mockSvc.applied)
}

func TestSessionHandlerSubmitRejectedCarriesReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	report := &session.Report{Fields: map[string][]string{"gp_code": {"required"}}}
	mockSvc := &sessionServiceMock{report: report, submitErr: appErrors.ErrValidation}
	handler := NewSessionHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/sessions/sess-1/submit", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}
	c.Set(middleware.ContextUserKey, engineerClaims())

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Data dto.SubmitFailureResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Contains(t, envelope.Data.Report.Fields, "gp_code")
}

func TestSessionHandlerSubmitSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sessionServiceMock{record: &models.MaintenanceRecord{ID: "rec-1", Status: models.RecordStatusPending}}
	handler := NewSessionHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/sessions/sess-1/submit", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}
	c.Set(middleware.ContextUserKey, engineerClaims())

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data dto.SubmitResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "rec-1", envelope.Data.RecordID)
}
