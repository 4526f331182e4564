package recovery

import (
	"log/slog"
	"sync"

	"github.com/phrazzld/imgbatch/internal/uiloop"
)

// Presenter shows a request to the user. It runs on the UI loop and returns
// the user's decision, or Undecided if it will answer later via
// Request.Respond.
type Presenter interface {
	Present(req *Request) Decision
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(req *Request) Decision

// Present calls f(req).
func (f PresenterFunc) Present(req *Request) Decision {
	return f(req)
}

// Channel routes recovery questions from one worker to the UI loop. A worker
// has at most one outstanding request at a time.
type Channel struct {
	loop      uiloop.Deferrer
	presenter Presenter
	logger    *slog.Logger

	mu       sync.Mutex
	pending  *Request
	canceled bool
}

// NewChannel creates a channel that presents questions through p on loop.
func NewChannel(loop uiloop.Deferrer, p Presenter, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		loop:      loop,
		presenter: p,
		logger:    logger.With("component", "recovery"),
	}
}

// Ask poses err for item to the user and blocks until a decision arrives.
// It must be called from a worker goroutine, never from the UI loop.
// There is no timeout: an unanswered question holds the worker until
// Respond or Cancel is called. After Cancel, Ask returns Cancel without
// asking.
func (c *Channel) Ask(item string, err error) Decision {
	req := NewRequest(item, err)

	c.mu.Lock()
	if c.canceled {
		c.mu.Unlock()
		return Cancel
	}
	c.pending = req
	c.mu.Unlock()

	c.logger.Debug("asking for recovery decision",
		"item", item,
		"error", err,
		"options", req.Options)

	c.loop.Defer(func() {
		if !req.Pending() {
			// answered before the question was shown, e.g. by Cancel
			return
		}
		if d := c.presenter.Present(req); d != Undecided {
			req.Respond(d)
		}
	})

	d := req.wait()

	c.mu.Lock()
	if c.pending == req {
		c.pending = nil
	}
	c.mu.Unlock()

	if req.Coerced() {
		c.logger.Warn("decision not offered for this error, skipping item",
			"item", item,
			"error", err)
	}
	c.logger.Debug("recovery decision received", "item", item, "decision", d.String())
	return d
}

// Pending returns the outstanding request, or nil.
func (c *Channel) Pending() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Cancel answers the outstanding request, if any, with Cancel, and makes
// every later Ask return Cancel immediately. It never blocks and is safe to
// call from the UI loop. It reports whether a waiting worker was released.
func (c *Channel) Cancel() bool {
	c.mu.Lock()
	c.canceled = true
	req := c.pending
	c.mu.Unlock()

	if req == nil {
		return false
	}
	return req.Respond(Cancel)
}

// Canceled reports whether Cancel has been called.
func (c *Channel) Canceled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canceled
}
