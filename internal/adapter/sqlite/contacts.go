package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
)

// ListContacts returns the contact links of an object in insertion order.
func (s *Store) ListContacts(ctx context.Context, element string, objectID int64) ([]domain.ContactLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT contact_id, code, source FROM element_contacts
		 WHERE element = ? AND element_id = ?
		 ORDER BY id`,
		element, objectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query contact links: %w", err)
	}
	defer rows.Close()

	var links []domain.ContactLink
	for rows.Next() {
		var l domain.ContactLink
		if err := rows.Scan(&l.ID, &l.Code, &l.Source); err != nil {
			return nil, fmt.Errorf("scan contact link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// FetchContact loads one contact.
func (s *Store) FetchContact(ctx context.Context, id int64) (domain.Contact, error) {
	var c domain.Contact
	err := s.db.QueryRowContext(ctx,
		`SELECT id, firstname, lastname, email, phone, address FROM contacts WHERE id = ?`, id,
	).Scan(&c.ID, &c.Firstname, &c.Lastname, &c.Email, &c.Phone, &c.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, fmt.Errorf("contact %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Contact{}, fmt.Errorf("query contact %d: %w", id, err)
	}
	return c, nil
}

// linkedContacts loads the external contacts linked to an object.
func (s *Store) linkedContacts(ctx context.Context, element string, objectID int64) ([]domain.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.firstname, c.lastname, c.email, c.phone, c.address
		 FROM element_contacts ec
		 JOIN contacts c ON c.id = ec.contact_id
		 WHERE ec.element = ? AND ec.element_id = ? AND ec.source = 'external'
		 ORDER BY ec.id`,
		element, objectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query linked contacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.Firstname, &c.Lastname, &c.Email, &c.Phone, &c.Address); err != nil {
			return nil, fmt.Errorf("scan linked contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
