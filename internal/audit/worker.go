package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel, persists them, and fans them
// out to the notification sink. Persistence and notification are best-effort
// monitoring paths: a failure is logged, never propagated back into the
// transition that emitted the event.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "append audit event",
					"error", err,
					"vendor_id", event.VendorID,
					"action", event.Action,
				)
			}
			if w.sink == nil {
				continue
			}
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "publish audit event",
					"error", err,
					"vendor_id", event.VendorID,
					"action", event.Action,
				)
			}
		}
	}
}
