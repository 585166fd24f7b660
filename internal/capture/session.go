package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldworks/worktrack-api/internal/models"
)

// SessionState tracks the capture lifecycle.
type SessionState string

const (
	StateIdle        SessionState = "idle"
	StateRequesting  SessionState = "requesting"
	StatePreviewing  SessionState = "previewing"
	StateSnapshotting SessionState = "snapshotting"
)

// Config tunes capture behaviour.
type Config struct {
	// PositionTimeout bounds the best-effort geolocation wait after a
	// frame has been grabbed.
	PositionTimeout time.Duration
	// JPEGQuality is the re-encode quality for captured stills.
	JPEGQuality int
}

// Session manages one camera-to-photo lifecycle:
// Idle → Requesting → Previewing → (Snapshotting →) Idle.
// One snapshot per acquisition; re-opening requires a new Open call.
// The device resource is released on every exit path.
type Session struct {
	guard      *Guard
	positioner Positioner
	cfg        Config
	logger     *zap.Logger

	mu     sync.Mutex
	state  SessionState
	stream Stream
	held   bool
}

// NewSession builds an idle capture session.
func NewSession(guard *Guard, positioner Positioner, cfg Config, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PositionTimeout <= 0 {
		cfg.PositionTimeout = 5 * time.Second
	}
	return &Session{
		guard:      guard,
		positioner: positioner,
		cfg:        cfg,
		logger:     logger,
		state:      StateIdle,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open acquires the device and moves to Previewing. Acquisition
// failures are returned as errors (ErrDeviceBusy, ErrPermissionDenied
// or a wrapped device error); the session is back in Idle with no
// resource held whenever an error is returned.
func (s *Session) Open(ctx context.Context, camera Camera, facing Facing) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("capture session already active in state %s", s.state)
	}
	s.state = StateRequesting
	s.mu.Unlock()

	if err := s.guard.TryAcquire(); err != nil {
		s.setState(StateIdle)
		return err
	}
	s.mu.Lock()
	s.held = true
	s.mu.Unlock()

	stream, err := camera.Acquire(ctx, facing)
	if err != nil {
		s.release()
		return fmt.Errorf("acquire device: %w", err)
	}

	s.mu.Lock()
	s.stream = stream
	s.state = StatePreviewing
	s.mu.Unlock()
	return nil
}

// Snapshot grabs the current frame synchronously, encodes it, then
// best-effort resolves the position under a bounded timeout. Position
// failure never discards the photo; the evidence is produced with
// Location nil. The device is released before returning, success or
// not, and the session returns to Idle.
func (s *Session) Snapshot(ctx context.Context) (models.CapturedEvidence, error) {
	s.mu.Lock()
	if s.state != StatePreviewing || s.stream == nil {
		s.mu.Unlock()
		return models.CapturedEvidence{}, fmt.Errorf("snapshot requires an open preview, session is %s", s.state)
	}
	s.state = StateSnapshotting
	stream := s.stream
	s.mu.Unlock()

	defer s.release()

	frame, err := stream.Frame()
	if err != nil {
		return models.CapturedEvidence{}, fmt.Errorf("grab frame: %w", err)
	}

	encoded, err := EncodeJPEG(frame, s.cfg.JPEGQuality)
	if err != nil {
		return models.CapturedEvidence{}, err
	}

	evidence := models.CapturedEvidence{
		EvidenceID: uuid.NewString(),
		CapturedAt: time.Now().UTC(),
		ImageData:  encoded,
	}

	if location, ok := s.resolvePosition(ctx); ok {
		evidence.Location = &location
	}

	return evidence, nil
}

// Cancel releases the device from any state and discards the
// in-progress frame. No evidence is emitted.
func (s *Session) Cancel() {
	s.release()
}

// resolvePosition asks the positioner with a bounded wait. Failures
// and timeouts degrade silently.
func (s *Session) resolvePosition(ctx context.Context) (models.GeoPoint, bool) {
	if s.positioner == nil {
		return models.GeoPoint{}, false
	}
	posCtx, cancel := context.WithTimeout(ctx, s.cfg.PositionTimeout)
	defer cancel()

	point, err := s.positioner.Current(posCtx)
	if err != nil {
		s.logger.Debug("position unavailable", zap.Error(err))
		return models.GeoPoint{}, false
	}
	return point, true
}

func (s *Session) release() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	wasHeld := s.held
	s.held = false
	s.state = StateIdle
	s.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			s.logger.Warn("failed to close device stream", zap.Error(err))
		}
	}
	if wasHeld {
		s.guard.Release()
	}
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
