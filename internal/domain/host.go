package domain

import "time"

// Contact role codes the host attaches to element/contact links.
const (
	RoleProjectAddress = "PROJECTADDRESS"
)

// ContactLink is one contact attached to a host object, in insertion order.
type ContactLink struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Source string `json:"source,omitempty"` // "external" (contact) or "internal" (user)
}

// Contact is a host contact record.
type Contact struct {
	ID        int64
	Firstname string
	Lastname  string
	Email     string
	Phone     string
	Address   string
}

// Invoice is the subset of a host invoice the notation recomputation reads.
type Invoice struct {
	ID       int64
	Element  string
	Ref      string
	Contacts []Contact
	Notation int
}

// Product is a host product or service.
type Product struct {
	ID          int64
	Label       string
	Description string
}

// SubProductRef points at one component of a kit product.
type SubProductRef struct {
	ProductID int64
	Qty       float64
}

// ActivityEntry is an automatic activity-log record (an agenda event on the host).
type ActivityEntry struct {
	TypeCode    string
	Code        string
	Label       string
	ElementType string
	FKElement   int64
	OwnerID     int64
	DateP       time.Time
	Percentage  int
}

// Geolocation associates an element with coordinates.
type Geolocation struct {
	ElementType string
	FKElement   int64
	Latitude    float64
	Longitude   float64
	CreatedBy   int64
	CreatedAt   time.Time
}

// GeocodeRequest is one address lookup.
type GeocodeRequest struct {
	Address string
	Referer string
}

// GeocodeResult is the best match of a geocoding lookup.
type GeocodeResult struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}
