package service

import (
	"context"
	"testing"

	"github.com/bharatbiz/bizagent/internal/domain/billing"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/domain/event"
	"github.com/bharatbiz/bizagent/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	riceItem = billing.RawItem{Name: "rice", Quantity: decimal.NewFromInt(2)}
	soapItem = billing.RawItem{Name: "soap", Quantity: decimal.NewFromInt(1)}
)

func TestInvoiceLifecycle_ComposeThenConfirm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lc := f.lifecycle()

	draft, replaced := lc.Compose(ctx, []billing.RawItem{riceItem, soapItem}, entity.CustomerRef{})
	require.NotNil(t, draft)
	assert.False(t, replaced)
	assert.Equal(t, workflow.StateDraftPending, lc.State())

	n, _ := f.invoices.Count(ctx)
	assert.Zero(t, n, "a draft is not in the ledger")

	inv, ok, err := lc.Confirm(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, draft.ID, inv.ID)

	list, _ := f.invoices.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, draft.ID, list[0].ID)
	assert.Equal(t, entity.PaymentPending, list[0].PaymentStatus)
	assert.True(t, list[0].GrandTotal().Equal(list[0].SubTotal().Add(list[0].GSTTotal())))

	assert.Equal(t, workflow.StateNoDraft, lc.State())
	assert.Nil(t, lc.Draft())

	assert.Equal(t, []event.Type{event.TypeDraftSet, event.TypeInvoiceFinalized, event.TypeDraftCleared}, f.events.types())
}

func TestInvoiceLifecycle_SecondComposeReplacesDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lc := f.lifecycle()

	first, _ := lc.Compose(ctx, []billing.RawItem{riceItem}, entity.CustomerRef{})
	second, replaced := lc.Compose(ctx, []billing.RawItem{soapItem}, entity.CustomerRef{})
	require.True(t, replaced)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, second.ID, lc.Draft().ID)

	inv, ok, err := lc.Confirm(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.ID, inv.ID)

	list, _ := f.invoices.List(ctx)
	require.Len(t, list, 1, "only the second draft is finalized")
	assert.Equal(t, "soap", list[0].Items[0].Name)
}

func TestInvoiceLifecycle_AtMostOneDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lc := f.lifecycle()

	var last *entity.Invoice
	for i := 1; i <= 5; i++ {
		last, _ = lc.Compose(ctx, []billing.RawItem{{Name: "dal", Quantity: decimal.NewFromInt(int64(i))}}, entity.CustomerRef{})
	}

	draft := lc.Draft()
	require.NotNil(t, draft)
	assert.Equal(t, last.ID, draft.ID)
	assert.True(t, draft.Items[0].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestInvoiceLifecycle_NoDraftActionsAreNoOps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lc := f.lifecycle()

	for i := 0; i < 2; i++ {
		_, ok := lc.Discard(ctx)
		assert.False(t, ok)
		inv, ok, err := lc.Confirm(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, inv)
		assert.Equal(t, workflow.StateNoDraft, lc.State())
	}

	n, _ := f.invoices.Count(ctx)
	assert.Zero(t, n)
	assert.Empty(t, f.events.types())
}

func TestInvoiceLifecycle_DiscardLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lc := f.lifecycle()

	draft, _ := lc.Compose(ctx, []billing.RawItem{riceItem}, entity.CustomerRef{Name: "Ramesh"})
	dropped, ok := lc.Discard(ctx)
	require.True(t, ok)
	assert.Equal(t, draft.ID, dropped.ID)

	n, _ := f.invoices.Count(ctx)
	assert.Zero(t, n)
	customers, _ := f.customers.List(ctx)
	assert.Empty(t, customers)
	assert.Equal(t, workflow.StateNoDraft, lc.State())
}

func TestInvoiceLifecycle_FinalizeIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lc := f.lifecycle()

	steps := []string{"compose", "confirm", "compose", "discard", "discard", "confirm", "compose", "compose", "confirm", "confirm"}
	prev := 0
	for _, step := range steps {
		switch step {
		case "compose":
			lc.Compose(ctx, []billing.RawItem{riceItem}, entity.CustomerRef{})
		case "confirm":
			_, _, err := lc.Confirm(ctx)
			require.NoError(t, err)
		case "discard":
			lc.Discard(ctx)
		}
		n, _ := f.invoices.Count(ctx)
		assert.GreaterOrEqual(t, n, prev, "after %s", step)
		prev = n
	}
	assert.Equal(t, 2, prev)
}

func TestInvoiceLifecycle_ConfirmRecordsCustomerOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lc := f.lifecycle()

	draft, _ := lc.Compose(ctx, []billing.RawItem{riceItem}, entity.CustomerRef{Name: "Ramesh", Contact: "9876543210"})
	inv, _, err := lc.Confirm(ctx)
	require.NoError(t, err)

	customers, _ := f.customers.List(ctx)
	require.Len(t, customers, 1)
	assert.Equal(t, 1, customers[0].VisitCount)
	assert.True(t, customers[0].TotalSpent.Equal(draft.GrandTotal()))
	assert.Equal(t, customers[0].ID, inv.CustomerID)

	stored, _ := f.invoices.GetByID(ctx, inv.ID)
	assert.Equal(t, customers[0].ID, stored.CustomerID)

	// a second confirm has no draft and must not count again
	_, ok, _ := lc.Confirm(ctx)
	assert.False(t, ok)
	customers, _ = f.customers.List(ctx)
	assert.Equal(t, 1, customers[0].VisitCount)
}

func TestInvoiceLifecycle_StorageFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lc := f.lifecycleWith(failingInvoiceRepo{f.invoices})

	draft, _ := lc.Compose(ctx, []billing.RawItem{riceItem}, entity.CustomerRef{})
	_, ok, err := lc.Confirm(ctx)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, workflow.StateDraftPending, lc.State())
	assert.Equal(t, draft.ID, lc.Draft().ID)
}

func TestInvoiceLifecycle_StorageFailureLeavesCustomerUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := &flakyInvoiceRepo{InvoiceRepository: f.invoices}
	lc := f.lifecycleWith(repo)

	lc.Compose(ctx, []billing.RawItem{riceItem}, entity.CustomerRef{Name: "Ramesh"})
	_, ok, err := lc.Confirm(ctx)
	require.Error(t, err)
	assert.False(t, ok)

	customers, _ := f.customers.List(ctx)
	assert.Empty(t, customers)

	repo.healed = true
	stored, ok, err := lc.Confirm(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	customers, _ = f.customers.List(ctx)
	require.Len(t, customers, 1)
	assert.Equal(t, 1, customers[0].VisitCount)
	assert.True(t, customers[0].TotalSpent.Equal(stored.GrandTotal()))
	assert.Equal(t, customers[0].ID, stored.CustomerID)
}

func TestInvoiceLifecycle_EmptyComposeChangesNothing(t *testing.T) {
	f := newFixture(t)
	lc := f.lifecycle()

	draft, replaced := lc.Compose(context.Background(), nil, entity.CustomerRef{})
	assert.Nil(t, draft)
	assert.False(t, replaced)
	assert.Equal(t, workflow.StateNoDraft, lc.State())

	pending, _ := lc.Compose(context.Background(), []billing.RawItem{riceItem}, entity.CustomerRef{})
	draft, replaced = lc.Compose(context.Background(), []billing.RawItem{}, entity.CustomerRef{})
	assert.Nil(t, draft)
	assert.False(t, replaced)
	assert.Equal(t, workflow.StateDraftPending, lc.State())
	assert.Equal(t, pending.ID, lc.Draft().ID)
	assert.Len(t, f.events.events, 1)
}

func TestInvoiceLifecycle_DraftIsACopy(t *testing.T) {
	f := newFixture(t)
	lc := f.lifecycle()

	draft, _ := lc.Compose(context.Background(), []billing.RawItem{riceItem}, entity.CustomerRef{})
	draft.Items[0].Quantity = decimal.NewFromInt(100)

	assert.True(t, lc.Draft().Items[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestInvoiceLifecycle_EventsCarryCorrelation(t *testing.T) {
	f := newFixture(t)
	lc := f.lifecycle()

	ctx := WithCorrelationID(context.Background(), "conv-1")
	lc.Compose(ctx, []billing.RawItem{riceItem}, entity.CustomerRef{})

	require.Len(t, f.events.events, 1)
	assert.Equal(t, "conv-1", f.events.events[0].CorrelationID)
	_, ok := f.events.events[0].Invoice()
	assert.True(t, ok)
}
