package capture

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fieldworks/worktrack-api/internal/models"
)

// Manager hands out capture sessions with per-device exclusivity. A
// device key identifies one physical camera (in practice, one
// operator's handset).
type Manager struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	guards map[string]*Guard
}

// NewManager builds a manager.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		guards: map[string]*Guard{},
	}
}

func (m *Manager) guard(deviceKey string) *Guard {
	m.mu.Lock()
	defer m.mu.Unlock()
	if deviceKey == "" {
		deviceKey = "default"
	}
	g, ok := m.guards[deviceKey]
	if !ok {
		g = &Guard{}
		m.guards[deviceKey] = g
	}
	return g
}

// Capture runs one full acquire-snapshot-release cycle against the
// named device and returns the produced evidence. The cycle owns the
// device exclusively; a concurrent capture against the same key fails
// fast with ErrDeviceBusy.
func (m *Manager) Capture(ctx context.Context, deviceKey string, camera Camera, positioner Positioner, facing Facing) (models.CapturedEvidence, error) {
	session := NewSession(m.guard(deviceKey), positioner, m.cfg, m.logger)
	if err := session.Open(ctx, camera, facing); err != nil {
		return models.CapturedEvidence{}, err
	}
	evidence, err := session.Snapshot(ctx)
	if err != nil {
		session.Cancel()
		return models.CapturedEvidence{}, err
	}
	return evidence, nil
}
