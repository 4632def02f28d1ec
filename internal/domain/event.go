package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event names raised by the host that have a registered handler.
const (
	EventBillCreate                 = "BILL_CREATE"
	EventBillRecCreate              = "BILLREC_CREATE"
	EventProjectAddContact          = "PROJECT_ADD_CONTACT"
	EventInvoiceAddContact          = "FACTURE_ADD_CONTACT"
	EventUserUpdateObjectContact    = "USER_UPDATE_OBJECT_CONTACT"
	EventUserAddContactNotification = "USER_ADD_CONTACT_NOTIFICATION"
	EventProposalLineInsert         = "LINEPROPAL_INSERT"
)

// Object is the minimal capability of an event payload: an identifier and
// the host element type it belongs to ("facture", "project", "propaldet").
type Object interface {
	ObjectID() int64
	Element() string
}

// ProductLine is an object line that may reference a product.
type ProductLine interface {
	Object
	ProductID() int64
}

// ObjectRef is the generic payload decoded from the wire. It satisfies every
// payload capability; fields the host did not send stay zero.
type ObjectRef struct {
	ID          int64  `json:"id"`
	ElementType string `json:"element"`
	FKProduct   int64  `json:"fk_product,omitempty"`
}

func (o ObjectRef) ObjectID() int64 { return o.ID }
func (o ObjectRef) Element() string { return o.ElementType }
func (o ObjectRef) ProductID() int64 { return o.FKProduct }

// Actor is the host user who performed the action.
type Actor struct {
	ID    int64  `json:"id"`
	Login string `json:"login,omitempty"`
}

// Event is a named occurrence in the host. It is not modified after dispatch.
type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Object     Object    `json:"object"`
	Actor      Actor     `json:"actor"`
	Locale     string    `json:"locale,omitempty"`
	Referer    string    `json:"referer,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// wireEvent is the JSON shape of an Event with a concrete payload type.
type wireEvent struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Object     *ObjectRef `json:"object"`
	Actor      Actor      `json:"actor"`
	Locale     string     `json:"locale"`
	Referer    string     `json:"referer"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// DecodeEvent parses a JSON event. A missing id is generated and a missing
// timestamp is set to now.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if w.Name == "" {
		return Event{}, fmt.Errorf("decode event: %w", ErrEmptyEventName)
	}

	evt := Event{
		ID:         w.ID,
		Name:       w.Name,
		Actor:      w.Actor,
		Locale:     w.Locale,
		Referer:    w.Referer,
		OccurredAt: w.OccurredAt,
	}
	if w.Object != nil {
		evt.Object = *w.Object
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = clock.Now().UTC()
	}
	return evt, nil
}

// ObjectID returns the payload identifier, or 0 when the event carries no object.
func (e Event) ObjectID() int64 {
	if e.Object == nil {
		return 0
	}
	return e.Object.ObjectID()
}

// RawEvent is an unprocessed message from the Kafka source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
