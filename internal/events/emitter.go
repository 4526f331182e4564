package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// ErrHandlerPanicked wraps a panic raised by an event handler.
var ErrHandlerPanicked = errors.New("event handler panicked")

type subscription struct {
	id      uint64
	handler EventHandler
	types   []EventType
}

func (s subscription) wants(t EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// InMemoryEventEmitter dispatches each event synchronously to the handlers
// subscribed to its type, in subscription order.
type InMemoryEventEmitter struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// NewInMemoryEventEmitter creates an emitter with no handlers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With("component", "batch_events"),
	}
}

// RegisterHandler subscribes handler to the given event types, or to every
// event when no type is given. The returned func removes the subscription.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler, types ...EventType) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscription{id: id, handler: handler, types: types})
	count := len(e.subs)
	e.mu.Unlock()

	e.logger.Debug("registered event handler", "handler_count", count, "types", types)

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.subs = slices.DeleteFunc(e.subs, func(s subscription) bool { return s.id == id })
	}
}

// EmitEvent delivers event to every matching handler, even when some fail.
// The returned error joins all handler errors.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *BatchEvent) error {
	e.mu.RLock()
	subs := slices.Clone(e.subs)
	e.mu.RUnlock()

	var errs []error
	delivered := 0
	for _, s := range subs {
		if !s.wants(event.Type) {
			continue
		}
		delivered++
		if err := dispatch(ctx, s.handler, event); err != nil {
			e.logger.Error("event handler failed",
				"error", err,
				"subscription", s.id,
				"event_type", event.Type,
				"job_id", event.JobID)
			errs = append(errs, err)
		}
	}

	if delivered == 0 {
		e.logger.Debug("no handler for event", "event_type", event.Type, "job_id", event.JobID)
	}
	return errors.Join(errs...)
}

func dispatch(ctx context.Context, h EventHandler, event *BatchEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
		}
	}()
	return h.HandleEvent(ctx, event)
}
