package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
)

// Dispatcher routes host events to their handler. The handler table is fixed
// at construction, so Dispatch is safe for concurrent use without locking.
type Dispatcher struct {
	enabled  bool
	handlers map[string]Handler
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Dispatcher over a snapshot of reg. When enabled is false every
// dispatch is a no-op.
func New(reg *Registry, enabled bool, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	if enabled {
		metrics.ModuleEnabled.Set(1)
	} else {
		metrics.ModuleEnabled.Set(0)
	}
	return &Dispatcher{
		enabled:  enabled,
		handlers: reg.snapshot(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Dispatch runs the handler registered for evt.Name, if any. Handler failures
// and panics are returned in the Outcome; Dispatch never fails the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, evt domain.Event) domain.Outcome {
	if !d.enabled {
		d.metrics.Dispatches.WithLabelValues(d.metricEventName(evt.Name), "disabled").Inc()
		return domain.Outcome{}
	}
	if evt.Name == "" {
		d.metrics.Dispatches.WithLabelValues("", "invalid").Inc()
		return domain.Outcome{Err: domain.ErrEmptyEventName, Errors: []string{domain.ErrEmptyEventName.Error()}}
	}

	h, ok := d.handlers[evt.Name]
	if !ok {
		d.metrics.Dispatches.WithLabelValues(d.metricEventName(evt.Name), "unmatched").Inc()
		return domain.Outcome{}
	}

	d.logger.Debug("trigger launched",
		"event", evt.Name,
		"event_id", evt.ID,
		"object_id", evt.ObjectID(),
		"actor_id", evt.Actor.ID,
	)

	start := time.Now()
	err := d.safeExecute(ctx, evt, h)
	d.metrics.DispatchDuration.WithLabelValues(evt.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		d.metrics.Dispatches.WithLabelValues(evt.Name, "failed").Inc()
		d.logger.Error("trigger failed",
			"event", evt.Name,
			"event_id", evt.ID,
			"object_id", evt.ObjectID(),
			"error", err,
		)
		return domain.Outcome{Triggered: 1, Err: err, Errors: errorMessages(err)}
	}

	d.metrics.Dispatches.WithLabelValues(evt.Name, "triggered").Inc()
	return domain.Outcome{Triggered: 1}
}

// CheckReadiness reports an error when no handler is registered.
func (d *Dispatcher) CheckReadiness(_ context.Context) error {
	if len(d.handlers) == 0 {
		return errors.New("no trigger handlers registered")
	}
	return nil
}

// safeExecute runs a handler with panic recovery.
func (d *Dispatcher) safeExecute(ctx context.Context, evt domain.Event, h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, evt)
}

// errorMessages flattens a handler error into the messages reported to the
// host. Messages attached to an object by the host come first.
func errorMessages(err error) []string {
	var objErr *domain.ObjectError
	if errors.As(err, &objErr) && len(objErr.Messages) > 0 {
		out := make([]string, len(objErr.Messages))
		copy(out, objErr.Messages)
		return out
	}
	return []string{err.Error()}
}

// metricEventName keeps label cardinality bounded: names without a handler
// are folded into "other".
func (d *Dispatcher) metricEventName(name string) string {
	if _, ok := d.handlers[name]; ok {
		return name
	}
	return "other"
}
