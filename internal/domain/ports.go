package domain

import "context"

// ContactDirectory reads contacts and the contact links of host objects.
type ContactDirectory interface {
	// ListContacts returns the contacts linked to an object, oldest first.
	ListContacts(ctx context.Context, element string, objectID int64) ([]ContactLink, error)
	FetchContact(ctx context.Context, id int64) (Contact, error)
}

// InvoiceStore loads invoices and stores their contact notation.
type InvoiceStore interface {
	FetchInvoice(ctx context.Context, element string, id int64) (Invoice, error)
	SaveNotation(ctx context.Context, element string, id int64, notation int) error
}

// ProductCatalog reads products and kit composition.
type ProductCatalog interface {
	// SubProductTree returns the kit branches of a product. A product that is
	// not a kit has no branches.
	SubProductTree(ctx context.Context, productID int64) ([][]SubProductRef, error)
	FetchProduct(ctx context.Context, id int64) (Product, error)
}

// FieldUpdater is the host's generic set-field-by-name mechanism.
type FieldUpdater interface {
	SetField(ctx context.Context, element string, id int64, field, value string, actor Actor) error
}

// ActivityLog records automatic activity entries.
type ActivityLog interface {
	CreateActivity(ctx context.Context, entry ActivityEntry) (int64, error)
}

// GeolocationStore records coordinates for elements.
type GeolocationStore interface {
	CreateGeolocation(ctx context.Context, geo Geolocation) (int64, error)
}

// Translator resolves a translation key for a locale. Unknown keys are
// returned unchanged.
type Translator interface {
	Translate(locale, key string) string
}

// Geocoder resolves an address to its best match. ok is false when nothing
// was found or the lookup failed.
type Geocoder interface {
	Geocode(ctx context.Context, req GeocodeRequest) (result GeocodeResult, ok bool)
}
