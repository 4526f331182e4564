package job

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/imgbatch/internal/uiloop"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// startLoop runs a UI loop for the duration of the test.
func startLoop(t *testing.T) *uiloop.Loop {
	t.Helper()

	loop := uiloop.New(setupTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return loop
}

// newTestManager creates and starts a manager whose callbacks run on a live loop.
func newTestManager(t *testing.T, workers int) *Manager {
	t.Helper()

	m := NewManager(startLoop(t), ManagerConfig{
		WorkerCount:       workers,
		ProgressThreshold: 0.1,
	}, setupTestLogger())
	m.Start()
	t.Cleanup(m.Close)
	return m
}

// recorder collects callback events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
