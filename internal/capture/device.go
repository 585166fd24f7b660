package capture

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/fieldworks/worktrack-api/internal/models"
)

// Facing selects which camera on a multi-camera device to acquire.
type Facing string

const (
	FacingBack  Facing = "back"
	FacingFront Facing = "front"
)

// Device collaborator errors.
var (
	// ErrPermissionDenied means the imaging device refused access.
	ErrPermissionDenied = errors.New("imaging device permission denied")
	// ErrDeviceBusy means another session currently holds the device.
	ErrDeviceBusy = errors.New("imaging device busy")
	// ErrPositionUnavailable means the positioning source failed or
	// timed out. It is never surfaced to the user; capture degrades
	// by omitting the location.
	ErrPositionUnavailable = errors.New("position unavailable")
)

// Stream is a live frame source bound to an acquired device.
type Stream interface {
	// Frame grabs the current frame synchronously.
	Frame() (image.Image, error)
	// Close releases the underlying device resource.
	Close() error
}

// Camera acquires exclusive access to an imaging device.
type Camera interface {
	Acquire(ctx context.Context, facing Facing) (Stream, error)
}

// Positioner resolves the current geographic position. Implementations
// must honor ctx cancellation; the session wraps calls in a bounded
// timeout.
type Positioner interface {
	Current(ctx context.Context) (models.GeoPoint, error)
}

// Guard serialises access to one physical device. TryAcquire fails
// fast instead of queueing: this is a single-operator field app, so a
// second concurrent capture attempt is always a bug or a double-tap.
type Guard struct {
	mu   sync.Mutex
	held bool
}

// TryAcquire takes the guard or reports ErrDeviceBusy.
func (g *Guard) TryAcquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held {
		return ErrDeviceBusy
	}
	g.held = true
	return nil
}

// Release frees the guard. Safe to call when not held.
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = false
}
