package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened in a batch.
type EventType string

// Batch event types
const (
	ItemStarted   EventType = "item_started"
	ItemFailed    EventType = "item_failed"
	DecisionMade  EventType = "decision_made"
	ItemCompleted EventType = "item_completed"
	BatchFinished EventType = "batch_finished"
)

// BatchEvent describes one step of a batch run. Fields that do not apply
// to the event type are left empty.
type BatchEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what happened
	Type EventType `json:"type"`

	// JobID is the job running the batch
	JobID uuid.UUID `json:"job_id"`

	// Operation names the batch kind, e.g. "save" or "transform"
	Operation string `json:"operation"`

	// Index and Item identify the item (ItemStarted, ItemFailed,
	// DecisionMade, ItemCompleted)
	Index int    `json:"index"`
	Item  string `json:"item,omitempty"`

	// Result is the item result (ItemCompleted) or batch outcome (BatchFinished)
	Result string `json:"result,omitempty"`

	// Decision is the recovery decision (DecisionMade)
	Decision string `json:"decision,omitempty"`

	// Error is the failure message (ItemFailed)
	Error string `json:"error,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewBatchEvent creates a new BatchEvent of the given type.
func NewBatchEvent(eventType EventType, jobID uuid.UUID, operation string) *BatchEvent {
	return &BatchEvent{
		ID:        uuid.New(),
		Type:      eventType,
		JobID:     jobID,
		Operation: operation,
		Index:     -1,
		CreatedAt: time.Now(),
	}
}

// ForItem sets the item fields and returns the event.
func (e *BatchEvent) ForItem(index int, item string) *BatchEvent {
	e.Index = index
	e.Item = item
	return e
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *BatchEvent) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *BatchEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *BatchEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the batch layer to publish events without knowing the handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *BatchEvent) error
}
