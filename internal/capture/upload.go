package capture

import (
	"context"
	"image"

	"github.com/fieldworks/worktrack-api/internal/models"
)

// The web client holds the physical camera; its captured frame arrives
// as an upload. These adapters present one uploaded frame (and the
// client's position fix, when it sent one) behind the device
// interfaces so the capture state machine runs unchanged server-side.

// UploadCamera yields a single-frame stream from an uploaded image.
type UploadCamera struct {
	frame image.Image
}

// NewUploadCamera wraps a decoded upload.
func NewUploadCamera(frame image.Image) *UploadCamera {
	return &UploadCamera{frame: frame}
}

// Acquire implements Camera.
func (c *UploadCamera) Acquire(ctx context.Context, facing Facing) (Stream, error) {
	if c.frame == nil {
		return nil, ErrPermissionDenied
	}
	return &uploadStream{frame: c.frame}, nil
}

type uploadStream struct {
	frame  image.Image
	closed bool
}

func (s *uploadStream) Frame() (image.Image, error) {
	if s.closed {
		return nil, ErrPermissionDenied
	}
	return s.frame, nil
}

func (s *uploadStream) Close() error {
	s.closed = true
	return nil
}

// UploadPositioner reports the client-supplied fix, or failure when
// the client had none.
type UploadPositioner struct {
	point *models.GeoPoint
}

// NewUploadPositioner wraps an optional client position fix.
func NewUploadPositioner(point *models.GeoPoint) *UploadPositioner {
	return &UploadPositioner{point: point}
}

// Current implements Positioner.
func (p *UploadPositioner) Current(ctx context.Context) (models.GeoPoint, error) {
	if p.point == nil {
		return models.GeoPoint{}, ErrPositionUnavailable
	}
	return *p.point, nil
}
