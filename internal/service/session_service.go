package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fieldworks/worktrack-api/internal/capture"
	"github.com/fieldworks/worktrack-api/internal/models"
	"github.com/fieldworks/worktrack-api/internal/schema"
	"github.com/fieldworks/worktrack-api/internal/session"
	appErrors "github.com/fieldworks/worktrack-api/pkg/errors"
)

type sessionRecordStore interface {
	Create(ctx context.Context, record *models.MaintenanceRecord) error
}

type sessionAuditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type evidenceCapturer interface {
	Capture(ctx context.Context, deviceKey string, camera capture.Camera, positioner capture.Positioner, facing capture.Facing) (models.CapturedEvidence, error)
}

// SessionView is the client-facing snapshot of one form session.
type SessionView struct {
	ID        string                               `json:"id"`
	Activity  models.ActivityType                  `json:"activity"`
	Title     string                               `json:"title"`
	Scalars   map[string]interface{}               `json:"scalars"`
	Gates     map[string]bool                      `json:"gates"`
	Rows      map[string][]session.Row             `json:"rows"`
	Evidence  map[string][]models.CapturedEvidence `json:"evidence"`
	Report    session.Report                       `json:"report"`
	Valid     bool                                 `json:"valid"`
	CreatedAt time.Time                            `json:"created_at"`
	UpdatedAt time.Time                            `json:"updated_at"`
}

// CaptureRequest carries everything needed to produce one piece of
// evidence from an uploaded frame.
type CaptureRequest struct {
	Field     string
	DeviceKey string
	Facing    capture.Facing
	Frame     []byte
	Position  *models.GeoPoint
}

// SessionServiceConfig tunes session housekeeping.
type SessionServiceConfig struct {
	SweepInterval time.Duration
}

// SessionService drives the interactive form lifecycle: open, mutate,
// capture evidence, submit.
type SessionService struct {
	store    *session.Store
	records  sessionRecordStore
	audit    sessionAuditStore
	capturer evidenceCapturer
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      SessionServiceConfig
}

// NewSessionService constructs a SessionService.
func NewSessionService(store *session.Store, records sessionRecordStore, audit sessionAuditStore, capturer evidenceCapturer, metrics *MetricsService, logger *zap.Logger, cfg SessionServiceConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 10 * time.Minute
	}
	return &SessionService{
		store:    store,
		records:  records,
		audit:    audit,
		capturer: capturer,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Open starts a new session for the given activity.
func (s *SessionService) Open(ctx context.Context, activity models.ActivityType, userID string) (*SessionView, error) {
	sc, ok := schema.ForActivity(activity)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown activity type %q", activity))
	}
	entry := s.store.Create(sc, userID)
	s.logger.Info("form session opened",
		zap.String("session_id", entry.ID),
		zap.String("activity", string(activity)),
		zap.String("user_id", userID))
	return s.view(sc, entry), nil
}

// Get returns the current session snapshot.
func (s *SessionService) Get(ctx context.Context, id, userID string) (*SessionView, error) {
	entry, sc, err := s.load(id, userID)
	if err != nil {
		return nil, err
	}
	return s.view(sc, entry), nil
}

// Apply runs one reducer action against the session state and returns
// the updated snapshot together with the recomputed validation report.
func (s *SessionService) Apply(ctx context.Context, id, userID string, action session.Action) (*SessionView, error) {
	_, sc, err := s.load(id, userID)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.Update(id, func(st session.State) (session.State, error) {
		return session.Reduce(sc, st, action)
	})
	if err != nil {
		return nil, mapSessionError(err)
	}
	return s.view(sc, &updated), nil
}

// CaptureEvidence runs the full capture cycle against the uploaded
// frame and appends the produced evidence to the named field.
func (s *SessionService) CaptureEvidence(ctx context.Context, id, userID string, req CaptureRequest) (*SessionView, error) {
	_, sc, err := s.load(id, userID)
	if err != nil {
		return nil, err
	}
	field, ok := sc.Field(req.Field)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown field %q", req.Field))
	}
	if field.Kind != schema.KindEvidence {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("field %q does not collect photos", req.Field))
	}

	frame, err := capture.DecodeFrame(req.Frame)
	if err != nil {
		s.metrics.RecordCapture("decode_failed")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "uploaded frame is not a decodable image")
	}

	facing := req.Facing
	if facing == "" {
		facing = capture.FacingBack
	}
	evidence, err := s.capturer.Capture(ctx, req.DeviceKey, capture.NewUploadCamera(frame), capture.NewUploadPositioner(req.Position), facing)
	if err != nil {
		switch {
		case errors.Is(err, capture.ErrDeviceBusy):
			s.metrics.RecordCapture("busy")
			return nil, appErrors.ErrDeviceBusy
		case errors.Is(err, capture.ErrPermissionDenied):
			s.metrics.RecordCapture("unavailable")
			return nil, appErrors.ErrDeviceUnavailable
		default:
			s.metrics.RecordCapture("failed")
			return nil, appErrors.Wrap(err, appErrors.ErrDeviceUnavailable.Code, appErrors.ErrDeviceUnavailable.Status, "capture failed")
		}
	}
	s.metrics.RecordCapture("ok")

	updated, err := s.store.Update(id, func(st session.State) (session.State, error) {
		return session.Reduce(sc, st, session.Action{
			Kind:     session.ActionAppendEvidence,
			Field:    req.Field,
			Evidence: &evidence,
		})
	})
	if err != nil {
		return nil, mapSessionError(err)
	}
	return s.view(sc, &updated), nil
}

// SubmitMeta carries request metadata for the audit trail.
type SubmitMeta struct {
	IP        string
	UserAgent string
}

// Submit validates the whole session and persists it as a record. On
// validation failure the full report is returned alongside the error;
// on persistence failure the session state is retained so the operator
// can retry without losing work. An in-flight submission cannot be
// duplicated or cancelled.
func (s *SessionService) Submit(ctx context.Context, id, userID string, meta SubmitMeta) (*models.MaintenanceRecord, *session.Report, error) {
	entry, sc, err := s.load(id, userID)
	if err != nil {
		return nil, nil, err
	}

	locked, ok, err := s.store.BeginSubmit(id)
	if err != nil {
		return nil, nil, appErrors.ErrSessionNotFound
	}
	if !ok {
		return nil, nil, appErrors.ErrSubmitInFlight
	}

	// Collect-all validation: the whole report is returned in one pass.
	report := locked.State.Report
	if !report.Valid() {
		s.store.EndSubmit(id, sc, false)
		s.metrics.RecordSubmission(entry.Activity, "invalid")
		return nil, &report, appErrors.Clone(appErrors.ErrValidation, "form has validation errors")
	}

	record := &models.MaintenanceRecord{
		ActivityType: entry.Activity,
		Payload:      session.BuildPayload(sc, locked.State),
		SubmittedBy:  userID,
		Status:       models.RecordStatusPending,
	}

	if err := s.records.Create(ctx, record); err != nil {
		// Keep the composed state so a retry does not lose work.
		s.store.EndSubmit(id, sc, false)
		retryable := isTransient(err)
		s.metrics.RecordSubmission(entry.Activity, "persist_failed")
		s.logger.Error("record persistence failed",
			zap.String("session_id", id),
			zap.String("activity", string(entry.Activity)),
			zap.Bool("retryable", retryable),
			zap.Error(err))
		return nil, nil, appErrors.Persistence(err, retryable)
	}

	// Success resets the session to a fresh form for the next entry.
	s.store.EndSubmit(id, sc, true)
	s.metrics.RecordSubmission(entry.Activity, "ok")

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionRecordSubmit,
			Resource:   "record",
			ResourceID: &record.ID,
			NewValues:  []byte(fmt.Sprintf(`{"activity":%q}`, entry.Activity)),
			IPAddress:  meta.IP,
			UserAgent:  meta.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to record submission audit log", zap.Error(err))
		}
	}

	s.logger.Info("record submitted",
		zap.String("record_id", record.ID),
		zap.String("activity", string(entry.Activity)),
		zap.String("user_id", userID))
	return record, nil, nil
}

// Discard drops the session without persisting anything.
func (s *SessionService) Discard(ctx context.Context, id, userID string) error {
	if _, _, err := s.load(id, userID); err != nil {
		return err
	}
	s.store.Delete(id)
	return nil
}

// StartSweeper boots periodic expiry of abandoned sessions.
func (s *SessionService) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.store.SweepExpired(); removed > 0 {
					s.logger.Info("expired form sessions removed", zap.Int("count", removed))
				}
			}
		}
	}()
}

func (s *SessionService) load(id, userID string) (*session.Entry, *schema.FormSchema, error) {
	entry, ok := s.store.Get(id)
	if !ok {
		return nil, nil, appErrors.ErrSessionNotFound
	}
	if entry.UserID != userID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "session belongs to another user")
	}
	sc, ok := schema.ForActivity(entry.Activity)
	if !ok {
		return nil, nil, appErrors.Wrap(fmt.Errorf("no schema for %s", entry.Activity), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "schema missing for session activity")
	}
	return &entry, sc, nil
}

func (s *SessionService) view(sc *schema.FormSchema, entry *session.Entry) *SessionView {
	return &SessionView{
		ID:        entry.ID,
		Activity:  entry.Activity,
		Title:     sc.Title,
		Scalars:   entry.State.Scalars,
		Gates:     entry.State.Gates,
		Rows:      entry.State.Rows,
		Evidence:  entry.State.Evidence,
		Report:    entry.State.Report,
		Valid:     entry.State.Report.Valid(),
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}

// mapSessionError translates reducer and store errors onto the API
// error taxonomy.
func mapSessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return appErrors.ErrSessionNotFound
	case errors.Is(err, session.ErrIndexOutOfRange):
		return appErrors.Clone(appErrors.ErrIndexOutOfRange, err.Error())
	case errors.Is(err, session.ErrRowFloor):
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	case errors.Is(err, session.ErrUnknownField), errors.Is(err, session.ErrWrongFieldKind):
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
}

// isTransient classifies persistence failures. Connection-level faults
// are worth a plain retry; constraint or encoding failures are not.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"connection refused", "connection reset", "broken pipe", "timeout", "too many connections", "the database system is starting up"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
