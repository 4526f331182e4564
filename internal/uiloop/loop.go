package uiloop

import (
	"context"
	"log/slog"
	"sync"
)

// Deferrer schedules a function to run later on the UI goroutine.
// Implementations must not block the caller.
type Deferrer interface {
	Defer(fn func())
}

// Loop is a single-consumer FIFO executor.
//
// The queue is unbounded: producers append under a mutex and poke a
// capacity-1 wake channel, so Defer returns immediately regardless of how
// far behind the consumer is.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	logger  *slog.Logger
}

var _ Deferrer = (*Loop)(nil)

// New creates an empty loop. Nothing runs until Run or Drain is called.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger.With("component", "uiloop"),
	}
}

// Defer appends fn to the queue. Nil functions are ignored.
func (l *Loop) Defer(fn func()) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
		// a wake-up is already pending
	}
}

// Len reports how many callbacks are waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Run executes deferred callbacks on the calling goroutine until ctx is done.
// The calling goroutine becomes the UI goroutine for the lifetime of Run.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("ui loop started")
	for {
		l.Drain()

		select {
		case <-ctx.Done():
			l.logger.Debug("ui loop stopped", "pending", l.Len())
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Drain runs every queued callback, including ones deferred while draining,
// and returns how many ran. It must only be called from the goroutine that
// owns the loop (or when no Run is active).
func (l *Loop) Drain() int {
	ran := 0
	for {
		fn, ok := l.pop()
		if !ok {
			return ran
		}
		fn()
		ran++
	}
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		return nil, false
	}
	fn := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return fn, true
}
