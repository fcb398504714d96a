package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"memegenius/internal/domain"
	"memegenius/internal/infra"
)

const jpegQuality = 92

// ErrClosed is returned by Open when the session was closed, or replaced by
// the Manager, before acquisition finished.
var ErrClosed = errors.New("camera: session closed")

// Status is a read-only view of a session.
type Status struct {
	ID       string    `json:"id,omitempty"`
	Device   string    `json:"device"`
	State    State     `json:"state"`
	Ready    bool      `json:"ready"`
	Error    string    `json:"error,omitempty"`
	OpenedAt time.Time `json:"opened_at,omitempty"`
}

// Session owns one acquired stream. Its tracks are stopped exactly once, by
// Close or by Open when Close won the race against acquisition.
type Session struct {
	id          string
	device      Device
	constraints Constraints
	logger      *infra.Logger

	mu       sync.Mutex
	state    State
	stream   Stream
	lastErr  string
	closed   bool
	openedAt time.Time
	cancel   context.CancelFunc
	release  sync.Once
}

// NewSession returns a closed session bound to device.
func NewSession(device Device, c Constraints, logger *infra.Logger) *Session {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Session{
		id:          uuid.NewString(),
		device:      device,
		constraints: c,
		logger:      logger,
		state:       StateClosed,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Open acquires the device. On refusal the session moves to denied and keeps
// DeniedMessage as its error.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.state != StateClosed {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot open session in state %s", domain.ErrInvalidState, state)
	}
	s.state = StateRequesting
	s.openedAt = time.Now().UTC()
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	stream, err := s.device.Acquire(ctx, s.constraints)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = nil
	if s.closed {
		if stream != nil {
			s.stop(stream)
			s.logger.Debug().Str("session_id", s.id).Msg("camera: stream arrived after close; released")
		}
		return fmt.Errorf("%w while acquiring", ErrClosed)
	}
	if err != nil {
		s.state = StateDenied
		s.lastErr = DeniedMessage
		s.logger.Warn().Err(err).Str("session_id", s.id).Str("device", s.device.Name()).Msg("camera: acquire failed")
		return fmt.Errorf("%w: %v", domain.ErrCamera, err)
	}
	s.stream = stream
	s.state = StateReady
	s.logger.Info().Str("session_id", s.id).Str("device", s.device.Name()).Msg("camera: session ready")
	return nil
}

// Capture grabs the current frame as a JPEG payload. Only valid when ready.
func (s *Session) Capture(ctx context.Context) (domain.Payload, error) {
	s.mu.Lock()
	if s.state != StateReady || s.stream == nil {
		state := s.state
		s.mu.Unlock()
		return domain.Payload{}, fmt.Errorf("%w: capture in state %s", domain.ErrInvalidState, state)
	}
	stream := s.stream
	s.mu.Unlock()

	frame, err := stream.Frame(ctx)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("%w: read frame: %v", domain.ErrCamera, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return domain.Payload{}, fmt.Errorf("%w: encode frame: %v", domain.ErrCamera, err)
	}
	return domain.NewPayload("image/jpeg", buf.Bytes()), nil
}

// Close stops every track and interrupts a pending acquisition. It is
// idempotent and valid in any state.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	stream := s.stream
	s.stream = nil
	s.state = StateClosed
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if stream != nil {
		s.stop(stream)
	}
}

// Status returns the current session view.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		ID:       s.id,
		Device:   s.device.Name(),
		State:    s.state,
		Ready:    s.state == StateReady,
		Error:    s.lastErr,
		OpenedAt: s.openedAt,
	}
}

func (s *Session) stop(stream Stream) {
	s.release.Do(func() {
		for _, track := range stream.Tracks() {
			track.Stop()
		}
		s.logger.Debug().Str("session_id", s.id).Msg("camera: tracks stopped")
	})
}
