package trigger_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
)

// fakeHost is an in-memory host implementing every port the handlers use.
type fakeHost struct {
	mu sync.Mutex

	links    map[int64][]domain.ContactLink
	contacts map[int64]domain.Contact
	invoices map[int64]domain.Invoice
	products map[int64]domain.Product
	kits     map[int64][][]domain.SubProductRef

	fieldErr    error
	activityErr error
	listErr     error

	fields       []setFieldCall
	notations    map[int64]int
	activities   []domain.ActivityEntry
	geolocations []domain.Geolocation
}

type setFieldCall struct {
	Element string
	ID      int64
	Field   string
	Value   string
	Actor   domain.Actor
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		links:     map[int64][]domain.ContactLink{},
		contacts:  map[int64]domain.Contact{},
		invoices:  map[int64]domain.Invoice{},
		products:  map[int64]domain.Product{},
		kits:      map[int64][][]domain.SubProductRef{},
		notations: map[int64]int{},
	}
}

func (h *fakeHost) ListContacts(_ context.Context, _ string, objectID int64) ([]domain.ContactLink, error) {
	if h.listErr != nil {
		return nil, h.listErr
	}
	return h.links[objectID], nil
}

func (h *fakeHost) FetchContact(_ context.Context, id int64) (domain.Contact, error) {
	c, ok := h.contacts[id]
	if !ok {
		return domain.Contact{}, fmt.Errorf("contact %d: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (h *fakeHost) FetchInvoice(_ context.Context, element string, id int64) (domain.Invoice, error) {
	inv, ok := h.invoices[id]
	if !ok {
		return domain.Invoice{}, fmt.Errorf("invoice %d: %w", id, domain.ErrNotFound)
	}
	inv.Element = element
	return inv, nil
}

func (h *fakeHost) SaveNotation(_ context.Context, _ string, id int64, notation int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notations[id] = notation
	return nil
}

func (h *fakeHost) SubProductTree(_ context.Context, productID int64) ([][]domain.SubProductRef, error) {
	return h.kits[productID], nil
}

func (h *fakeHost) FetchProduct(_ context.Context, id int64) (domain.Product, error) {
	p, ok := h.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (h *fakeHost) SetField(_ context.Context, element string, id int64, field, value string, actor domain.Actor) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fields = append(h.fields, setFieldCall{Element: element, ID: id, Field: field, Value: value, Actor: actor})
	return h.fieldErr
}

func (h *fakeHost) CreateActivity(_ context.Context, entry domain.ActivityEntry) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.activityErr != nil {
		return 0, h.activityErr
	}
	h.activities = append(h.activities, entry)
	return int64(len(h.activities)), nil
}

func (h *fakeHost) CreateGeolocation(_ context.Context, geo domain.Geolocation) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.geolocations = append(h.geolocations, geo)
	return int64(len(h.geolocations)), nil
}

// stubTranslator prefixes keys with the locale.
type stubTranslator struct{}

func (stubTranslator) Translate(locale, key string) string {
	return locale + ":" + key
}

// stubGeocoder returns a fixed result and records requests.
type stubGeocoder struct {
	result   domain.GeocodeResult
	ok       bool
	requests []domain.GeocodeRequest
}

func (g *stubGeocoder) Geocode(_ context.Context, req domain.GeocodeRequest) (domain.GeocodeResult, bool) {
	g.requests = append(g.requests, req)
	return g.result, g.ok
}
