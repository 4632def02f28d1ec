package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
)

// refererHeader carries the originating request's referer when the producer
// did not put it in the event body.
const refererHeader = "referer"

// Dispatcher runs the handler bound to an event.
type Dispatcher interface {
	Dispatch(ctx context.Context, evt domain.Event) domain.Outcome
}

// DispatchTransformer decodes each message, dispatches it and serializes the
// outcome.
type DispatchTransformer struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewTransformer creates a DispatchTransformer.
func NewTransformer(d Dispatcher, logger *slog.Logger) *DispatchTransformer {
	return &DispatchTransformer{dispatcher: d, logger: logger}
}

func (t *DispatchTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	evt, err := domain.DecodeEvent(raw.Value)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("offset %d: %w", raw.Offset, err)
	}
	if evt.Referer == "" {
		evt.Referer = raw.Headers[refererHeader]
	}

	out := t.dispatcher.Dispatch(ctx, evt)
	if out.Triggered == 0 && !out.Failed() {
		t.logger.Debug("no trigger for event", "event", evt.Name, "event_id", evt.ID)
	}
	return domain.SerializeOutcome(domain.NewOutcomeRecord(evt, out))
}
