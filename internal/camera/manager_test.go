package camera

import (
	"context"
	"errors"
	"image"
	"testing"

	"memegenius/internal/domain"
)

func TestManagerOpenClosesPrevious(t *testing.T) {
	dev := &fakeDevice{}
	m := NewManager(dev, ManagerOptions{})

	first, err := m.Open(context.Background())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	second, err := m.Open(context.Background())
	if err != nil {
		t.Fatalf("second Open returned error: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("second open reused the session")
	}
	for i, n := range dev.streams[0].stopCounts() {
		if n != 1 {
			t.Fatalf("first session track %d stopped %d times", i, n)
		}
	}
	for i, n := range dev.streams[1].stopCounts() {
		if n != 0 {
			t.Fatalf("live session track %d stopped", i)
		}
	}
	if st := m.Status(); st.ID != second.ID || !st.Ready {
		t.Fatalf("status = %+v", st)
	}

	m.Shutdown()
	for i, n := range dev.streams[1].stopCounts() {
		if n != 1 {
			t.Fatalf("shutdown left track %d running (%d stops)", i, n)
		}
	}
}

func TestManagerCaptureWithoutSession(t *testing.T) {
	m := NewManager(&fakeDevice{}, ManagerOptions{})
	if _, err := m.Capture(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if st := m.Status(); st.State != StateClosed || st.Device != "fake" {
		t.Fatalf("status = %+v", st)
	}
}

func TestManagerCloseKeepsStatus(t *testing.T) {
	m := NewManager(&fakeDevice{err: errors.New("denied")}, ManagerOptions{})
	st, err := m.Open(context.Background())
	if !errors.Is(err, domain.ErrCamera) || st.State != StateDenied {
		t.Fatalf("status = %+v, err = %v", st, err)
	}
	closed := m.Close()
	if closed.State != StateClosed || closed.Error != DeniedMessage {
		t.Fatalf("closed status = %+v", closed)
	}
}

func TestManagerPublishRequiresPublisher(t *testing.T) {
	m := NewManager(&fakeDevice{}, ManagerOptions{})
	if err := m.Publish(image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestManagerCloseDuringOpen(t *testing.T) {
	dev := &blockingDevice{entered: make(chan struct{})}
	m := NewManager(dev, ManagerOptions{})

	type result struct {
		st  Status
		err error
	}
	done := make(chan result, 1)
	go func() {
		st, err := m.Open(context.Background())
		done <- result{st, err}
	}()
	<-dev.entered

	st := m.Close()
	if st.State != StateClosed {
		t.Fatalf("close status = %+v", st)
	}
	res := <-done
	if !errors.Is(res.err, ErrClosed) || errors.Is(res.err, domain.ErrCamera) {
		t.Fatalf("Open err = %v, want ErrClosed only", res.err)
	}
	if res.st.State != StateClosed {
		t.Fatalf("open status = %+v", res.st)
	}
}
