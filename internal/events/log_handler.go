package events

import (
	"context"
	"log/slog"
)

// LogHandler writes every batch event to a structured logger.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHandler{logger: logger.With("component", "batch")}
}

// HandleEvent implements EventHandler.
func (h *LogHandler) HandleEvent(ctx context.Context, event *BatchEvent) error {
	attrs := []any{
		"job_id", event.JobID,
		"operation", event.Operation,
	}
	if event.Index >= 0 {
		attrs = append(attrs, "index", event.Index, "item", event.Item)
	}

	switch event.Type {
	case ItemStarted:
		h.logger.DebugContext(ctx, "item started", attrs...)
	case ItemFailed:
		h.logger.WarnContext(ctx, "item failed", append(attrs, "error", event.Error)...)
	case DecisionMade:
		h.logger.InfoContext(ctx, "recovery decision", append(attrs, "decision", event.Decision)...)
	case ItemCompleted:
		h.logger.DebugContext(ctx, "item completed", append(attrs, "result", event.Result)...)
	case BatchFinished:
		h.logger.InfoContext(ctx, "batch finished", append(attrs, "outcome", event.Result)...)
	default:
		h.logger.DebugContext(ctx, "batch event", append(attrs, "event_type", event.Type)...)
	}
	return nil
}
