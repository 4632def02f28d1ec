package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
)

// SubProductTree returns the direct components of a kit as a single branch,
// ordered by position. A product without components has no branches.
func (s *Store) SubProductTree(ctx context.Context, productID int64) ([][]domain.SubProductRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT child_id, qty FROM product_associations
		 WHERE parent_id = ?
		 ORDER BY position, id`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("query sub-products of %d: %w", productID, err)
	}
	defer rows.Close()

	var branch []domain.SubProductRef
	for rows.Next() {
		var ref domain.SubProductRef
		if err := rows.Scan(&ref.ProductID, &ref.Qty); err != nil {
			return nil, fmt.Errorf("scan sub-product: %w", err)
		}
		branch = append(branch, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(branch) == 0 {
		return nil, nil
	}
	return [][]domain.SubProductRef{branch}, nil
}

// FetchProduct loads one product.
func (s *Store) FetchProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id, label, description FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Label, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product %d: %w", id, err)
	}
	return p, nil
}
