// Package trigger holds the handlers bound to host events and registers them
// with a dispatcher.Registry.
package trigger

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/crm-trigger-service/internal/dispatcher"
	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Deps are the host collaborators and settings the handlers need.
type Deps struct {
	Contacts     domain.ContactDirectory
	Invoices     domain.InvoiceStore
	Products     domain.ProductCatalog
	Fields       domain.FieldUpdater
	Activities   domain.ActivityLog
	Geolocations domain.GeolocationStore
	Translator   domain.Translator

	// Geocoder may be nil, in which case project addresses are never geocoded.
	Geocoder domain.Geocoder

	// KitDescriptionOnProposalLine enables copying kit component descriptions
	// onto new quote lines.
	KitDescriptionOnProposalLine bool

	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Register binds every handler to its event names.
func Register(reg *dispatcher.Registry, deps Deps) error {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	notation := &NotationHandler{invoices: deps.Invoices, logger: deps.Logger}
	geocode := &ProjectAddressHandler{
		contacts:     deps.Contacts,
		geolocations: deps.Geolocations,
		geocoder:     deps.Geocoder,
		clock:        deps.Clock,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
	}
	activity := &ActivityHandler{
		activities: deps.Activities,
		translator: deps.Translator,
		clock:      deps.Clock,
		metrics:    deps.Metrics,
	}
	kit := &KitDescriptionHandler{
		products: deps.Products,
		fields:   deps.Fields,
		enabled:  deps.KitDescriptionOnProposalLine,
		logger:   deps.Logger,
	}

	bindings := []struct {
		name    string
		handler dispatcher.Handler
	}{
		{domain.EventBillCreate, notation.Handle},
		{domain.EventBillRecCreate, notation.Handle},
		{domain.EventProjectAddContact, geocode.Handle},
		{domain.EventInvoiceAddContact, activity.HandleObjectAddContact},
		{domain.EventUserUpdateObjectContact, activity.HandleUserUpdateObjectContact},
		{domain.EventUserAddContactNotification, activity.HandleUserAddContactNotification},
		{domain.EventProposalLineInsert, kit.Handle},
	}
	for _, b := range bindings {
		if err := reg.Register(b.name, b.handler); err != nil {
			return fmt.Errorf("register %s: %w", b.name, err)
		}
	}
	return nil
}

// requireObject returns the event payload or ErrMissingCapability.
func requireObject(evt domain.Event) (domain.Object, error) {
	if evt.Object == nil {
		return nil, fmt.Errorf("%s: %w: object", evt.Name, domain.ErrMissingCapability)
	}
	return evt.Object, nil
}

// elementOr returns the payload's element type, or def when the host omitted it.
func elementOr(obj domain.Object, def string) string {
	if e := obj.Element(); e != "" {
		return e
	}
	return def
}
