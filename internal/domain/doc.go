// Package domain models the business events raised by the host CRM and the
// host collaborators the trigger handlers call into.
//
// # Events
//
// The host raises a named event after a lifecycle change, together with the
// affected object, the acting user and the user's locale:
//
//	BILL_CREATE, BILLREC_CREATE      invoice or recurring invoice template created
//	PROJECT_ADD_CONTACT              contact linked to a project
//	FACTURE_ADD_CONTACT              contact linked to an invoice
//	USER_UPDATE_OBJECT_CONTACT       contact link of an object changed
//	USER_ADD_CONTACT_NOTIFICATION    contact subscribed to notifications
//	LINEPROPAL_INSERT                line inserted into a quote (proposal)
//
// Any other name is valid but has no handler; dispatching it is a no-op.
//
// # Objects
//
// The payload is loosely typed. Handlers state the capability they need as a
// small interface ([Object], [ProductLine]) and refetch full state through the
// host ports in ports.go. The payload is never treated as authoritative.
//
// # Host Ports
//
// Persistence, translation and the field-update mechanism belong to the host.
// They are reached through the interfaces in ports.go. A port reports a
// host-side failure either as a wrapped error or as an [*ObjectError] carrying
// the messages the host attached to the object; handlers propagate both.
//
// # Geocoding
//
// Addresses are sanitized with [SanitizeAddress] before being sent to a
// [Geocoder]. A geocoder never fails: unreachable services, empty responses
// and unparsable bodies all mean "no location found".
package domain
