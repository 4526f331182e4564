package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/imgbatch/internal/events"
	"github.com/phrazzld/imgbatch/internal/job"
	"github.com/phrazzld/imgbatch/internal/platform/logger"
	"github.com/phrazzld/imgbatch/internal/recovery"
	"github.com/phrazzld/imgbatch/internal/uiloop"
)

// ErrNoItems is returned by New for an empty batch.
var ErrNoItems = errors.New("batch has no items")

// Operation performs the batch work for one item. It must be safe to call
// again for the same item after a failure (Retry and Overwrite do so), and a
// failed call must not leave a partial result behind.
type Operation[T any] func(ctx context.Context, item T, dest *Destination) error

// ProgressView shows batch progress. It is only called on the UI loop.
type ProgressView interface {
	ShowProgress(fraction float64, caption string)
}

// Config describes one batch.
type Config[T any] struct {
	// Name labels the batch in logs, events and metrics, e.g. "save".
	Name string

	Items     []T
	Operation Operation[T]

	// Caption names an item for the user. Defaults to fmt.Sprint.
	Caption func(item T) string

	// Destination is passed to every Operation call. May be nil.
	Destination *Destination
}

// Deps are the collaborators a Coordinator talks to. Only Loop and
// Presenter are required.
type Deps struct {
	Loop      uiloop.Deferrer
	Presenter recovery.Presenter
	Emitter   events.EventEmitter
	View      ProgressView
	Logger    *slog.Logger
}

// Snapshot is a consistent view of a running batch for the UI.
type Snapshot struct {
	// Index is the item being processed, or -1 between items.
	Index           int
	Item            string
	Processed       int
	Total           int
	CancelRequested bool
}

// Coordinator runs a batch as a job action. The worker writes its state and
// the UI reads it through Snapshot, Outcome and Counts.
type Coordinator[T any] struct {
	name     string
	items    []T
	op       Operation[T]
	caption  func(T) string
	dest     *Destination
	loop     uiloop.Deferrer
	recovery *recovery.Channel
	emitter  events.EventEmitter
	view     ProgressView
	logger   *slog.Logger

	mu              sync.Mutex
	jobID           uuid.UUID
	cursor          int
	processed       int
	cancelRequested bool
	results         []ItemResult
}

// New validates cfg and creates a Coordinator.
func New[T any](cfg Config[T], deps Deps) (*Coordinator[T], error) {
	if len(cfg.Items) == 0 {
		return nil, ErrNoItems
	}
	if cfg.Operation == nil {
		return nil, errors.New("batch operation is required")
	}
	if deps.Loop == nil || deps.Presenter == nil {
		return nil, errors.New("batch needs a UI loop and a presenter")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	caption := cfg.Caption
	if caption == nil {
		caption = func(item T) string { return fmt.Sprint(item) }
	}
	dest := cfg.Destination
	if dest == nil {
		dest = &Destination{}
	}

	return &Coordinator[T]{
		name:     cfg.Name,
		items:    cfg.Items,
		op:       cfg.Operation,
		caption:  caption,
		dest:     dest,
		loop:     deps.Loop,
		recovery: recovery.NewChannel(deps.Loop, deps.Presenter, logger),
		emitter:  deps.Emitter,
		view:     deps.View,
		logger:   logger.With("component", "batch", "batch", cfg.Name),
		cursor:   -1,
		results:  make([]ItemResult, len(cfg.Items)),
	}, nil
}

// JobSpec returns a job spec that runs this batch. Progress is reported to
// the view, and canceling the job cancels the batch, answering any open
// recovery question with Cancel. Callers typically add OnFinished.
func (c *Coordinator[T]) JobSpec() job.Spec {
	return job.Spec{
		Name:    c.name,
		Action:  c.Run,
		Payload: c,
		NParts:  len(c.items),
		OnCancel: func(*job.Job) {
			c.Cancel()
		},
		OnProgress: func(_ *job.Job, fraction float64) {
			if c.view != nil {
				c.view.ShowProgress(fraction, c.captionAt(fraction))
			}
		},
	}
}

// Run processes the items in order. It is the job action and runs on a
// worker goroutine. It returns an error wrapping job.ErrCanceled when the
// batch stopped early.
func (c *Coordinator[T]) Run(ctx context.Context, j *job.Job) error {
	c.mu.Lock()
	c.jobID = j.ID()
	c.mu.Unlock()

	for i, item := range c.items {
		if c.stopRequested(ctx) {
			break
		}

		caption := c.caption(item)
		c.mu.Lock()
		c.cursor = i
		c.mu.Unlock()
		c.dest.setOverwriteCurrent(false)

		c.publishStarted(i, caption)

		if canceled := c.processItem(ctx, i, item, caption); canceled {
			break
		}

		c.mu.Lock()
		c.processed++
		c.mu.Unlock()

		j.PartFinished()
		j.SetProgress(0)
	}

	c.mu.Lock()
	c.cursor = -1
	processed := c.processed
	c.mu.Unlock()

	outcome := c.Outcome()
	c.publish(events.NewBatchEvent(events.BatchFinished, j.ID(), c.name), func(e *events.BatchEvent) {
		e.Result = outcome.String()
	})

	if outcome == Canceled {
		return fmt.Errorf("%s stopped after %d of %d items: %w", c.name, processed, len(c.items), job.ErrCanceled)
	}
	return nil
}

// processItem runs the operation for one item until it succeeds or a
// decision ends it. It returns true when the batch must stop.
func (c *Coordinator[T]) processItem(ctx context.Context, index int, item T, caption string) bool {
	// job cancellation stops the batch between items, never the running operation
	opCtx := logger.WithLogger(context.WithoutCancel(ctx), c.logger.With("item", caption))
	for {
		err := c.op(opCtx, item, c.dest)
		if err == nil {
			c.setResult(index, caption, ItemSaved)
			return false
		}

		c.logger.Debug("item attempt failed", "index", index, "item", caption, "error", err)
		c.publishItem(events.ItemFailed, index, caption, func(e *events.BatchEvent) {
			e.Error = err.Error()
		})

		decision := c.recovery.Ask(caption, err)
		c.publishItem(events.DecisionMade, index, caption, func(e *events.BatchEvent) {
			e.Decision = decision.String()
		})

		switch decision {
		case recovery.Retry:
			continue
		case recovery.Overwrite:
			c.dest.setOverwriteCurrent(true)
			continue
		case recovery.Cancel:
			c.mu.Lock()
			c.cancelRequested = true
			c.mu.Unlock()
			return true
		default:
			c.setResult(index, caption, ItemSkipped)
			return false
		}
	}
}

// Cancel asks the batch to stop before its next item. If the worker is
// waiting for a recovery decision, the question is answered with Cancel.
// Cancel never blocks and may be called from the UI loop.
func (c *Coordinator[T]) Cancel() {
	c.mu.Lock()
	c.cancelRequested = true
	c.mu.Unlock()

	if c.recovery.Cancel() {
		c.logger.Info("canceled batch while waiting for a recovery decision")
	}
}

// Snapshot returns the current position of the batch.
func (c *Coordinator[T]) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Index:           c.cursor,
		Processed:       c.processed,
		Total:           len(c.items),
		CancelRequested: c.cancelRequested,
	}
	if c.cursor >= 0 {
		s.Item = c.caption(c.items[c.cursor])
	}
	return s
}

// Outcome classifies the batch. It is final once Run has returned.
func (c *Coordinator[T]) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelRequested {
		return Canceled
	}
	for _, r := range c.results {
		if r == ItemSkipped {
			return PartialSkip
		}
	}
	return Complete
}

// Counts tallies per-item results.
func (c *Coordinator[T]) Counts() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()

	var counts Counts
	for _, r := range c.results {
		switch r {
		case ItemSaved:
			counts.Saved++
		case ItemSkipped:
			counts.Skipped++
		default:
			counts.NotAttempted++
		}
	}
	return counts
}

// Results returns a copy of the per-item results, in item order.
func (c *Coordinator[T]) Results() []ItemResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ItemResult(nil), c.results...)
}

// Name returns the batch name.
func (c *Coordinator[T]) Name() string {
	return c.name
}

// captionAt names the item whose completion brought the batch to fraction.
// Progress is reported once per finished item, so fraction*total is the
// number of items processed.
func (c *Coordinator[T]) captionAt(fraction float64) string {
	i := int(math.Round(fraction*float64(len(c.items)))) - 1
	if i < 0 {
		return ""
	}
	if i >= len(c.items) {
		i = len(c.items) - 1
	}
	return c.caption(c.items[i])
}

// stopRequested folds job cancellation into the batch flag.
func (c *Coordinator[T]) stopRequested(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		c.cancelRequested = true
	}
	return c.cancelRequested
}

func (c *Coordinator[T]) setResult(index int, caption string, r ItemResult) {
	c.mu.Lock()
	c.results[index] = r
	c.mu.Unlock()

	c.publishItem(events.ItemCompleted, index, caption, func(e *events.BatchEvent) {
		e.Result = r.String()
	})
}

func (c *Coordinator[T]) publishStarted(index int, caption string) {
	c.mu.Lock()
	fraction := float64(c.processed) / float64(len(c.items))
	c.mu.Unlock()

	if c.view != nil {
		c.loop.Defer(func() { c.view.ShowProgress(fraction, caption) })
	}
	c.publishItem(events.ItemStarted, index, caption, nil)
}

func (c *Coordinator[T]) publishItem(t events.EventType, index int, caption string, fill func(*events.BatchEvent)) {
	c.mu.Lock()
	jobID := c.jobID
	c.mu.Unlock()

	c.publish(events.NewBatchEvent(t, jobID, c.name).ForItem(index, caption), fill)
}

// publish hands the event to the emitter on the UI loop.
func (c *Coordinator[T]) publish(e *events.BatchEvent, fill func(*events.BatchEvent)) {
	if c.emitter == nil {
		return
	}
	if fill != nil {
		fill(e)
	}
	c.loop.Defer(func() {
		if err := c.emitter.EmitEvent(context.Background(), e); err != nil {
			c.logger.Warn("batch event handler failed", "event_type", e.Type, "error", err)
		}
	})
}
