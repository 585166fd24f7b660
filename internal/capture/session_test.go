package capture

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/worktrack-api/internal/models"
)

type stubStream struct {
	frame  image.Image
	err    error
	closed bool
}

func (s *stubStream) Frame() (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.frame, nil
}

func (s *stubStream) Close() error {
	s.closed = true
	return nil
}

type stubCamera struct {
	stream *stubStream
	err    error
}

func (c *stubCamera) Acquire(ctx context.Context, facing Facing) (Stream, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.stream, nil
}

type stubPositioner struct {
	point models.GeoPoint
	err   error
	block bool
}

func (p *stubPositioner) Current(ctx context.Context) (models.GeoPoint, error) {
	if p.block {
		<-ctx.Done()
		return models.GeoPoint{}, ctx.Err()
	}
	if p.err != nil {
		return models.GeoPoint{}, p.err
	}
	return p.point, nil
}

func testFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 4, 4))
}

func TestSessionSnapshotProducesEvidence(t *testing.T) {
	guard := &Guard{}
	camera := &stubCamera{stream: &stubStream{frame: testFrame()}}
	positioner := &stubPositioner{point: models.GeoPoint{Latitude: 26.1, Longitude: 91.7}}
	session := NewSession(guard, positioner, Config{}, nil)

	require.NoError(t, session.Open(context.Background(), camera, FacingBack))
	assert.Equal(t, StatePreviewing, session.State())

	evidence, err := session.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, evidence.EvidenceID)
	assert.NotEmpty(t, evidence.ImageData)
	require.NotNil(t, evidence.Location)
	assert.Equal(t, 26.1, evidence.Location.Latitude)

	// The device is released after a snapshot.
	assert.Equal(t, StateIdle, session.State())
	assert.True(t, camera.stream.closed)
	assert.NoError(t, guard.TryAcquire())
}

func TestSessionBusyGuardFailsFast(t *testing.T) {
	guard := &Guard{}
	require.NoError(t, guard.TryAcquire())

	session := NewSession(guard, nil, Config{}, nil)
	err := session.Open(context.Background(), &stubCamera{stream: &stubStream{frame: testFrame()}}, FacingBack)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeviceBusy))
	assert.Equal(t, StateIdle, session.State())
}

func TestSessionAcquireFailureReleasesGuard(t *testing.T) {
	guard := &Guard{}
	session := NewSession(guard, nil, Config{}, nil)

	err := session.Open(context.Background(), &stubCamera{err: ErrPermissionDenied}, FacingBack)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	// Guard must be free again for the next attempt.
	assert.NoError(t, guard.TryAcquire())
}

func TestSessionSnapshotRequiresPreview(t *testing.T) {
	session := NewSession(&Guard{}, nil, Config{}, nil)
	_, err := session.Snapshot(context.Background())
	require.Error(t, err)
}

func TestSessionPositionTimeoutDegrades(t *testing.T) {
	guard := &Guard{}
	camera := &stubCamera{stream: &stubStream{frame: testFrame()}}
	positioner := &stubPositioner{block: true}
	session := NewSession(guard, positioner, Config{PositionTimeout: 20 * time.Millisecond}, nil)

	require.NoError(t, session.Open(context.Background(), camera, FacingBack))
	evidence, err := session.Snapshot(context.Background())
	require.NoError(t, err)

	// Photo survives, location is simply omitted.
	assert.NotEmpty(t, evidence.ImageData)
	assert.Nil(t, evidence.Location)
}

func TestSessionCancelReleases(t *testing.T) {
	guard := &Guard{}
	camera := &stubCamera{stream: &stubStream{frame: testFrame()}}
	session := NewSession(guard, nil, Config{}, nil)

	require.NoError(t, session.Open(context.Background(), camera, FacingBack))
	session.Cancel()

	assert.Equal(t, StateIdle, session.State())
	assert.True(t, camera.stream.closed)
	assert.NoError(t, guard.TryAcquire())
}

func TestManagerCaptureCycle(t *testing.T) {
	manager := NewManager(Config{}, nil)
	camera := &stubCamera{stream: &stubStream{frame: testFrame()}}

	evidence, err := manager.Capture(context.Background(), "device-1", camera, &stubPositioner{point: models.GeoPoint{Latitude: 1, Longitude: 2}}, FacingBack)
	require.NoError(t, err)
	assert.NotEmpty(t, evidence.EvidenceID)

	// The same device is immediately reusable.
	camera.stream.closed = false
	_, err = manager.Capture(context.Background(), "device-1", camera, nil, FacingBack)
	require.NoError(t, err)
}
