package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
)

// NotationHandler recomputes the contact notation of a newly created invoice.
type NotationHandler struct {
	invoices domain.InvoiceStore
	logger   *slog.Logger
}

// Handle refetches the invoice, since the event payload may be partial, then
// stores the notation computed from its linked contacts.
func (h *NotationHandler) Handle(ctx context.Context, evt domain.Event) error {
	obj, err := requireObject(evt)
	if err != nil {
		return err
	}

	inv, err := h.invoices.FetchInvoice(ctx, elementOr(obj, invoiceElement(evt.Name)), obj.ObjectID())
	if err != nil {
		return fmt.Errorf("refetch invoice %d: %w", obj.ObjectID(), err)
	}

	notation := domain.ContactNotation(inv.Contacts)
	if notation == inv.Notation {
		return nil
	}
	if err := h.invoices.SaveNotation(ctx, inv.Element, inv.ID, notation); err != nil {
		return fmt.Errorf("save notation of invoice %d: %w", inv.ID, err)
	}

	h.logger.Debug("contact notation updated", "invoice_id", inv.ID, "ref", inv.Ref, "notation", notation)
	return nil
}

func invoiceElement(eventName string) string {
	if eventName == domain.EventBillRecCreate {
		return "facturerec"
	}
	return "facture"
}
