package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
)

const descriptionField = "description"

// KitDescriptionHandler copies the descriptions of a kit's components onto a
// newly inserted quote line.
type KitDescriptionHandler struct {
	products domain.ProductCatalog
	fields   domain.FieldUpdater
	enabled  bool
	logger   *slog.Logger
}

// Handle reads the first branch of the kit's sub-product tree, builds the
// combined description and writes it onto the line. Lines without a product,
// products that are not kits and a disabled flag are no-ops.
func (h *KitDescriptionHandler) Handle(ctx context.Context, evt domain.Event) error {
	if !h.enabled {
		return nil
	}
	line, ok := evt.Object.(domain.ProductLine)
	if !ok {
		return fmt.Errorf("%s: %w: product line", evt.Name, domain.ErrMissingCapability)
	}
	if line.ProductID() == 0 {
		return nil
	}

	tree, err := h.products.SubProductTree(ctx, line.ProductID())
	if err != nil {
		return fmt.Errorf("load sub-products of product %d: %w", line.ProductID(), err)
	}
	if len(tree) == 0 || len(tree[0]) == 0 {
		return nil
	}

	components := make([]domain.Product, 0, len(tree[0]))
	for _, ref := range tree[0] {
		p, err := h.products.FetchProduct(ctx, ref.ProductID)
		if err != nil {
			return fmt.Errorf("fetch sub-product %d: %w", ref.ProductID, err)
		}
		components = append(components, p)
	}

	description := domain.KitDescription(components)
	if err := h.fields.SetField(ctx, elementOr(line, "propaldet"), line.ObjectID(), descriptionField, description, evt.Actor); err != nil {
		return fmt.Errorf("set description of line %d: %w", line.ObjectID(), err)
	}

	h.logger.Debug("kit description copied to quote line",
		"line_id", line.ObjectID(),
		"product_id", line.ProductID(),
		"components", len(components),
	)
	return nil
}
