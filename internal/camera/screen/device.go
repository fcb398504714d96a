// Package screen captures the desktop as a camera substitute for kiosk
// setups without a webcam.
package screen

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/vova616/screenshot"

	"memegenius/internal/camera"
)

// ErrStopped is returned by Frame after the stream was stopped.
var ErrStopped = errors.New("screen: stream stopped")

// Device grabs the primary screen.
type Device struct {
	capture func() (*image.RGBA, error)
}

// New returns a screen device backed by the OS screenshot API.
func New() *Device {
	return &Device{capture: screenshot.CaptureScreen}
}

// Name implements camera.Device.
func (d *Device) Name() string { return "screen" }

// Acquire probes the screen once; a failing probe means access is denied.
func (d *Device) Acquire(ctx context.Context, _ camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := d.capture(); err != nil {
		return nil, fmt.Errorf("screen: capture probe: %w", err)
	}
	return &stream{device: d}, nil
}

type stream struct {
	device  *Device
	mu      sync.Mutex
	stopped bool
}

func (s *stream) Tracks() []camera.Track { return []camera.Track{s} }

func (s *stream) ID() string { return "screen-video" }

func (s *stream) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *stream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return nil, ErrStopped
	}
	img, err := s.device.capture()
	if err != nil {
		return nil, fmt.Errorf("screen: capture: %w", err)
	}
	return img, nil
}
