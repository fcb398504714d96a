// Package feed is a camera device whose frames are pushed in by the browser.
// Acquisition succeeds once a publisher delivers a frame within the grace
// period; otherwise the device reports itself unavailable.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"memegenius/internal/camera"
)

// ErrNoPublisher is returned when no frame arrives within the grace period.
var ErrNoPublisher = errors.New("feed: no frame publisher connected")

// ErrStopped is returned by Frame after the stream's track was stopped.
var ErrStopped = errors.New("feed: stream stopped")

const defaultGrace = 5 * time.Second

// Device buffers the most recent published frame.
type Device struct {
	grace time.Duration
	now   func() time.Time

	mu        sync.Mutex
	latest    image.Image
	updatedAt time.Time
	signal    chan struct{}
}

// New returns a feed device. A frame older than grace does not count as a
// live publisher.
func New(grace time.Duration) *Device {
	if grace <= 0 {
		grace = defaultGrace
	}
	return &Device{grace: grace, now: time.Now, signal: make(chan struct{})}
}

// Name implements camera.Device.
func (d *Device) Name() string { return "feed" }

// Publish stores frame as the latest and wakes pending acquisitions.
func (d *Device) Publish(frame image.Image) {
	if frame == nil {
		return
	}
	d.mu.Lock()
	d.latest = frame
	d.updatedAt = d.now()
	close(d.signal)
	d.signal = make(chan struct{})
	d.mu.Unlock()
}

// PublishEncoded decodes a JPEG/PNG/GIF frame and publishes it.
func (d *Device) PublishEncoded(data []byte) error {
	frame, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("feed: decode frame: %w", err)
	}
	d.Publish(frame)
	return nil
}

// Acquire waits for a fresh frame for at most the grace period.
func (d *Device) Acquire(ctx context.Context, _ camera.Constraints) (camera.Stream, error) {
	timer := time.NewTimer(d.grace)
	defer timer.Stop()
	for {
		d.mu.Lock()
		fresh := d.latest != nil && d.now().Sub(d.updatedAt) <= d.grace
		wait := d.signal
		d.mu.Unlock()
		if fresh {
			return &stream{device: d, track: &track{id: "feed-video"}}, nil
		}
		select {
		case <-wait:
		case <-timer.C:
			return nil, ErrNoPublisher
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (d *Device) frame() image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest
}

type track struct {
	id      string
	mu      sync.Mutex
	stopped bool
}

func (t *track) ID() string { return t.id }

func (t *track) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *track) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type stream struct {
	device *Device
	track  *track
}

func (s *stream) Tracks() []camera.Track { return []camera.Track{s.track} }

func (s *stream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.track.isStopped() {
		return nil, ErrStopped
	}
	frame := s.device.frame()
	if frame == nil {
		return nil, ErrNoPublisher
	}
	return frame, nil
}
