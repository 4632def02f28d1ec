package trigger_test

import (
	"testing"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotation_RecomputedFromRefetchedInvoice(t *testing.T) {
	h := newHarness(t)
	h.host.invoices[11] = domain.Invoice{
		ID:  11,
		Ref: "FA2503-0001",
		Contacts: []domain.Contact{
			{ID: 1, Email: "a@example.com", Phone: "0102030405", Address: "1 rue A"},
			{ID: 2, Email: "b@example.com"},
		},
	}

	out := h.dispatch(domain.EventBillCreate, domain.ObjectRef{ID: 11})

	require.NoError(t, out.Err)
	assert.Equal(t, 1, out.Result())
	assert.Equal(t, 66, h.host.notations[11])
}

func TestNotation_RecurringInvoice(t *testing.T) {
	h := newHarness(t)
	h.host.invoices[12] = domain.Invoice{ID: 12, Contacts: []domain.Contact{{ID: 1, Email: "a@example.com", Phone: "1", Address: "x"}}}

	out := h.dispatch(domain.EventBillRecCreate, domain.ObjectRef{ID: 12, ElementType: "facturerec"})

	require.NoError(t, out.Err)
	assert.Equal(t, 100, h.host.notations[12])
}

func TestNotation_UnchangedIsNotSaved(t *testing.T) {
	h := newHarness(t)
	h.host.invoices[13] = domain.Invoice{ID: 13}

	out := h.dispatch(domain.EventBillCreate, domain.ObjectRef{ID: 13})

	require.NoError(t, out.Err)
	assert.NotContains(t, h.host.notations, int64(13))
}

func TestNotation_MissingInvoice(t *testing.T) {
	h := newHarness(t)

	out := h.dispatch(domain.EventBillCreate, domain.ObjectRef{ID: 99})

	require.True(t, out.Failed())
	assert.ErrorIs(t, out.Err, domain.ErrNotFound)
}
