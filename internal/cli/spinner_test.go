package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a buffer the spinner goroutine writes to.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndUpdates(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Laying out a.dax...")
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Update("Laid out b.dax")
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Laying out a.dax...") {
		t.Errorf("output missing first message: %q", got)
	}
	if !strings.Contains(got, "Laid out b.dax") {
		t.Errorf("output missing updated message: %q", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("line not cleared after Stop: %q", got)
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerTo(ctx, &syncBuffer{}, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerTo(ctx, &syncBuffer{}, "Testing with timeout...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, "Testing idempotent stop...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	done := make(chan struct{})
	go func() {
		newSpinnerTo(context.Background(), &syncBuffer{}, "never started").Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() blocked on a spinner that was never started")
	}
}
