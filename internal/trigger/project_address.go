package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// geolocationElementType is the element type recorded on project address geolocations.
const geolocationElementType = "project"

// ProjectAddressHandler geocodes the address contact of a project when it is linked.
type ProjectAddressHandler struct {
	contacts     domain.ContactDirectory
	geolocations domain.GeolocationStore
	geocoder     domain.Geocoder
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// Handle inspects only the most recently linked contact. When several address
// contacts are linked in one batch, only the last one is geocoded.
func (h *ProjectAddressHandler) Handle(ctx context.Context, evt domain.Event) error {
	obj, err := requireObject(evt)
	if err != nil {
		return err
	}

	element := elementOr(obj, "project")
	links, err := h.contacts.ListContacts(ctx, element, obj.ObjectID())
	if err != nil {
		return fmt.Errorf("list contacts of %s %d: %w", element, obj.ObjectID(), err)
	}
	if len(links) == 0 {
		return nil
	}
	last := links[len(links)-1]
	if last.Code != domain.RoleProjectAddress {
		return nil
	}

	if h.geocoder == nil {
		h.logger.Debug("geocoding disabled, project address not located", "contact_id", last.ID)
		return nil
	}

	contact, err := h.contacts.FetchContact(ctx, last.ID)
	if err != nil {
		return fmt.Errorf("fetch contact %d: %w", last.ID, err)
	}

	address := domain.SanitizeAddress(contact.Address)
	if address == "" {
		h.logger.Debug("project address contact has no address", "contact_id", contact.ID)
		return nil
	}

	result, ok := h.geocoder.Geocode(ctx, domain.GeocodeRequest{Address: address, Referer: evt.Referer})
	if !ok {
		return nil
	}

	geo := domain.Geolocation{
		ElementType: geolocationElementType,
		FKElement:   last.ID,
		Latitude:    result.Latitude,
		Longitude:   result.Longitude,
		CreatedBy:   evt.Actor.ID,
		CreatedAt:   h.clock.Now().UTC(),
	}
	if _, err := h.geolocations.CreateGeolocation(ctx, geo); err != nil {
		return fmt.Errorf("create geolocation for contact %d: %w", last.ID, err)
	}
	h.metrics.GeolocationsCreated.Inc()

	h.logger.Info("project address located",
		"project_id", obj.ObjectID(),
		"contact_id", last.ID,
		"lat", result.Latitude,
		"lon", result.Longitude,
	)
	return nil
}
