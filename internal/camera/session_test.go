package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"memegenius/internal/domain"
)

type fakeTrack struct {
	id    string
	stops atomic.Int32
}

func (t *fakeTrack) ID() string { return t.id }
func (t *fakeTrack) Stop()      { t.stops.Add(1) }

type fakeStream struct {
	tracks []*fakeTrack
	frame  image.Image
}

func newFakeStream() *fakeStream {
	img := image.NewRGBA(image.Rect(0, 0, 32, 18))
	for x := 0; x < 32; x++ {
		img.Set(x, 5, color.RGBA{R: 255, A: 255})
	}
	return &fakeStream{tracks: []*fakeTrack{{id: "video"}, {id: "audio"}}, frame: img}
}

func (s *fakeStream) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

func (s *fakeStream) Frame(ctx context.Context) (image.Image, error) { return s.frame, nil }

func (s *fakeStream) stopCounts() []int32 {
	out := make([]int32, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t.stops.Load()
	}
	return out
}

type fakeDevice struct {
	mu       sync.Mutex
	streams  []*fakeStream
	err      error
	gate     chan struct{}
	entered  chan struct{}
	acquires int
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	d.mu.Lock()
	d.acquires++
	gate, entered := d.gate, d.entered
	d.mu.Unlock()
	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}
	if d.err != nil {
		return nil, d.err
	}
	s := newFakeStream()
	d.mu.Lock()
	d.streams = append(d.streams, s)
	d.mu.Unlock()
	return s, nil
}

func TestSessionOpenCaptureClose(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, DefaultConstraints(), nil)

	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if st := s.Status(); st.State != StateReady || !st.Ready {
		t.Fatalf("status = %+v", st)
	}

	p, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if p.MIMEType() != "image/jpeg" {
		t.Fatalf("MIMEType = %q", p.MIMEType())
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(p.Bytes()))
	if err != nil {
		t.Fatalf("capture is not a jpeg: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 18 {
		t.Fatalf("capture size = %dx%d, want native 32x18", cfg.Width, cfg.Height)
	}

	s.Close()
	s.Close()
	for i, n := range dev.streams[0].stopCounts() {
		if n != 1 {
			t.Fatalf("track %d stopped %d times, want 1", i, n)
		}
	}
	if _, err := s.Capture(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("capture after close err = %v", err)
	}
}

func TestSessionCaptureBeforeReady(t *testing.T) {
	s := NewSession(&fakeDevice{}, DefaultConstraints(), nil)
	if _, err := s.Capture(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestSessionDenied(t *testing.T) {
	s := NewSession(&fakeDevice{err: errors.New("NotAllowedError")}, DefaultConstraints(), nil)

	err := s.Open(context.Background())
	if !errors.Is(err, domain.ErrCamera) {
		t.Fatalf("err = %v, want ErrCamera", err)
	}
	st := s.Status()
	if st.State != StateDenied || st.Error != "Could not access camera. Please check permissions." {
		t.Fatalf("status = %+v", st)
	}
	if _, err := s.Capture(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("capture on denied session err = %v", err)
	}
	s.Close()
}

func TestSessionCloseWhileAcquiring(t *testing.T) {
	dev := &fakeDevice{gate: make(chan struct{}), entered: make(chan struct{})}
	s := NewSession(dev, DefaultConstraints(), nil)

	done := make(chan error, 1)
	go func() { done <- s.Open(context.Background()) }()
	<-dev.entered

	if st := s.Status(); st.State != StateRequesting {
		t.Fatalf("state = %s, want requesting", st.State)
	}
	s.Close()
	close(dev.gate)

	err := <-done
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Open err = %v, want ErrClosed", err)
	}
	if errors.Is(err, domain.ErrCamera) {
		t.Fatal("a user close must not be reported as a camera failure")
	}
	if len(dev.streams) != 1 {
		t.Fatalf("streams = %d", len(dev.streams))
	}
	for i, n := range dev.streams[0].stopCounts() {
		if n != 1 {
			t.Fatalf("late track %d stopped %d times, want 1", i, n)
		}
	}
	if st := s.Status(); st.State != StateClosed {
		t.Fatalf("state = %s, want closed", st.State)
	}
}

func TestSessionOpenTwice(t *testing.T) {
	s := NewSession(&fakeDevice{}, DefaultConstraints(), nil)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := s.Open(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second Open err = %v", err)
	}
	s.Close()
}

// blockingDevice waits for its context like a real permission prompt.
type blockingDevice struct {
	entered chan struct{}
}

func (d *blockingDevice) Name() string { return "blocking" }

func (d *blockingDevice) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	close(d.entered)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSessionCloseInterruptsAcquire(t *testing.T) {
	dev := &blockingDevice{entered: make(chan struct{})}
	s := NewSession(dev, DefaultConstraints(), nil)

	done := make(chan error, 1)
	go func() { done <- s.Open(context.Background()) }()
	<-dev.entered
	s.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("Open err = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not interrupt the pending acquisition")
	}
	if st := s.Status(); st.State != StateClosed || st.Error != "" {
		t.Fatalf("status = %+v", st)
	}
}
