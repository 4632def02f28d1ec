package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
)

// FetchInvoice loads an invoice with its linked external contacts.
func (s *Store) FetchInvoice(ctx context.Context, element string, id int64) (domain.Invoice, error) {
	inv := domain.Invoice{ID: id, Element: element}
	err := s.db.QueryRowContext(ctx,
		`SELECT ref, notation FROM invoices WHERE element = ? AND id = ?`, element, id,
	).Scan(&inv.Ref, &inv.Notation)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Invoice{}, fmt.Errorf("%s %d: %w", element, id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("query %s %d: %w", element, id, err)
	}

	inv.Contacts, err = s.linkedContacts(ctx, element, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	return inv, nil
}

// SaveNotation stores the contact notation of an invoice.
func (s *Store) SaveNotation(ctx context.Context, element string, id int64, notation int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET notation = ? WHERE element = ? AND id = ?`, notation, element, id,
	)
	if err != nil {
		return fmt.Errorf("update notation of %s %d: %w", element, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %d: %w", element, id, domain.ErrNotFound)
	}
	return nil
}
