package trigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Activity entry constants shared by every automatic entry.
const (
	activityTypeCode   = "AC_OTH_AUTO"
	activityPercentage = -1
)

// ActivityHandler writes an activity-log entry when contacts of an object change.
type ActivityHandler struct {
	activities domain.ActivityLog
	translator domain.Translator
	clock      clockwork.Clock
	metrics    *observability.Metrics
}

// HandleObjectAddContact logs a contact added to an invoice. The entry is
// attached to the object's element type.
func (h *ActivityHandler) HandleObjectAddContact(ctx context.Context, evt domain.Event) error {
	obj, err := requireObject(evt)
	if err != nil {
		return err
	}
	element := elementOr(obj, "facture")
	return h.create(ctx, evt, obj, activityKind{
		elementType: element,
		code:        "AC_" + strings.ToUpper(element) + "_ADD_CONTACT",
		labelKey:    "ObjectAddContactTrigger",
	})
}

// HandleUserUpdateObjectContact logs a change to an object's contact link.
func (h *ActivityHandler) HandleUserUpdateObjectContact(ctx context.Context, evt domain.Event) error {
	obj, err := requireObject(evt)
	if err != nil {
		return err
	}
	return h.create(ctx, evt, obj, activityKind{
		code:     "AC_USER_UPDATE_OBJECT_CONTACT",
		labelKey: "UpdateObjectContactTrigger",
	})
}

// HandleUserAddContactNotification logs a contact subscribed to notifications.
func (h *ActivityHandler) HandleUserAddContactNotification(ctx context.Context, evt domain.Event) error {
	obj, err := requireObject(evt)
	if err != nil {
		return err
	}
	return h.create(ctx, evt, obj, activityKind{
		code:     "AC_USER_ADD_CONTACT_NOTIFICATION",
		labelKey: "AddContactNotificationTrigger",
	})
}

type activityKind struct {
	elementType string
	code        string
	labelKey    string
}

func (h *ActivityHandler) create(ctx context.Context, evt domain.Event, obj domain.Object, kind activityKind) error {
	entry := domain.ActivityEntry{
		TypeCode:    activityTypeCode,
		Code:        kind.code,
		Label:       h.translator.Translate(evt.Locale, kind.labelKey),
		ElementType: kind.elementType,
		FKElement:   obj.ObjectID(),
		OwnerID:     evt.Actor.ID,
		DateP:       h.clock.Now().UTC(),
		Percentage:  activityPercentage,
	}
	if _, err := h.activities.CreateActivity(ctx, entry); err != nil {
		return fmt.Errorf("create activity %s for object %d: %w", kind.code, obj.ObjectID(), err)
	}
	h.metrics.ActivitiesCreated.Inc()
	return nil
}
