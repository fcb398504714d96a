// Package camera manages the single live capture session. A Device hands out
// a Stream whose tracks must all be stopped when the session ends.
package camera

import (
	"context"
	"image"
)

// DeniedMessage is stored on a session whose device could not be acquired.
const DeniedMessage = "Could not access camera. Please check permissions."

// Constraints describe the preferred capture settings.
type Constraints struct {
	FacingMode string `json:"facing_mode"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// DefaultConstraints asks for the front camera at 1280x720.
func DefaultConstraints() Constraints {
	return Constraints{FacingMode: "user", Width: 1280, Height: 720}
}

// Track is one media track of a stream.
type Track interface {
	ID() string
	Stop()
}

// Stream is a live capture handle.
type Stream interface {
	Tracks() []Track
	// Frame returns the current frame at native resolution.
	Frame(ctx context.Context) (image.Image, error)
}

// Device acquires streams. Acquire blocks until the stream is live or the
// device refuses.
type Device interface {
	Name() string
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// FramePublisher is implemented by devices fed from outside the process.
type FramePublisher interface {
	Publish(frame image.Image)
}

// State is the session lifecycle position.
type State string

const (
	StateClosed     State = "closed"
	StateRequesting State = "requesting"
	StateReady      State = "ready"
	StateDenied     State = "denied"
)
