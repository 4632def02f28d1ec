package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outcome reports what a dispatch did. Triggered is the number of handlers
// that ran (0 or 1). Err is set when the handler failed; Errors holds the
// accumulated messages for the caller.
type Outcome struct {
	Triggered int
	Err       error
	Errors    []string
}

// Failed reports whether the handler signalled a failure.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Result returns the host-style result code: -1 on failure, otherwise the
// number of handlers that ran.
func (o Outcome) Result() int {
	if o.Failed() {
		return -1
	}
	return o.Triggered
}

// OutcomeRecord is the wire form of an Outcome, returned by the HTTP ingress
// and published to the sink topic.
type OutcomeRecord struct {
	EventID      string    `json:"event_id"`
	EventName    string    `json:"event_name"`
	Triggered    int       `json:"triggered"`
	Result       int       `json:"result"`
	Errors       []string  `json:"errors,omitempty"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

// NewOutcomeRecord builds the wire record for an event's outcome.
func NewOutcomeRecord(evt Event, out Outcome) OutcomeRecord {
	return OutcomeRecord{
		EventID:      evt.ID,
		EventName:    evt.Name,
		Triggered:    out.Triggered,
		Result:       out.Result(),
		Errors:       out.Errors,
		DispatchedAt: clock.Now().UTC(),
	}
}

// SerializeOutcome converts an outcome record into a sink message keyed by event id.
func SerializeOutcome(rec OutcomeRecord) (OutputEvent, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize outcome: %w", err)
	}
	return OutputEvent{
		Key:   []byte(rec.EventID),
		Value: data,
		Headers: map[string]string{
			"event_name":    rec.EventName,
			"dispatched_at": rec.DispatchedAt.Format(time.RFC3339),
		},
	}, nil
}
