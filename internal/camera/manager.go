package camera

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"memegenius/internal/domain"
	"memegenius/internal/infra"
)

// ManagerOptions configure a Manager.
type ManagerOptions struct {
	Constraints    Constraints
	AcquireTimeout time.Duration
	Logger         *infra.Logger
}

// Manager keeps at most one live session. Opening a new session closes the
// previous one first.
type Manager struct {
	device         Device
	constraints    Constraints
	acquireTimeout time.Duration
	logger         *infra.Logger

	mu      sync.Mutex
	current *Session
}

// NewManager returns a manager for device.
func NewManager(device Device, opts ManagerOptions) *Manager {
	c := opts.Constraints
	if c == (Constraints{}) {
		c = DefaultConstraints()
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Manager{
		device:         device,
		constraints:    c,
		acquireTimeout: opts.AcquireTimeout,
		logger:         logger,
	}
}

// Open replaces the current session with a new one and acquires the device.
// The manager lock is not held during acquisition so Close can interrupt it.
func (m *Manager) Open(ctx context.Context) (Status, error) {
	session := NewSession(m.device, m.constraints, m.logger)

	m.mu.Lock()
	prev := m.current
	m.current = session
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	if m.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.acquireTimeout)
		defer cancel()
	}
	err := session.Open(ctx)
	return session.Status(), err
}

// Capture grabs a still from the current session.
func (m *Manager) Capture(ctx context.Context) (domain.Payload, error) {
	session := m.session()
	if session == nil {
		return domain.Payload{}, fmt.Errorf("%w: no camera session", domain.ErrInvalidState)
	}
	return session.Capture(ctx)
}

// Close stops the current session, if any.
func (m *Manager) Close() Status {
	session := m.session()
	if session == nil {
		return Status{Device: m.device.Name(), State: StateClosed}
	}
	session.Close()
	return session.Status()
}

// Status reports the current session, or a closed status when none exists.
func (m *Manager) Status() Status {
	session := m.session()
	if session == nil {
		return Status{Device: m.device.Name(), State: StateClosed}
	}
	return session.Status()
}

// Publish forwards a frame to devices fed from outside the process.
func (m *Manager) Publish(frame image.Image) error {
	pub, ok := m.device.(FramePublisher)
	if !ok {
		return fmt.Errorf("%w: device %s does not accept frames", domain.ErrInvalidState, m.device.Name())
	}
	pub.Publish(frame)
	return nil
}

// Shutdown releases the device on process teardown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	session := m.current
	m.current = nil
	m.mu.Unlock()
	if session != nil {
		session.Close()
		m.logger.Info().Str("session_id", session.ID()).Msg("camera: released on shutdown")
	}
}

func (m *Manager) session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
