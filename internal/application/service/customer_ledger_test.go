package service

import (
	"context"
	"testing"

	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/domain/event"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerLedger_RecordVisit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.ledger.RecordVisit(ctx, entity.CustomerRef{Name: "Ramesh"}, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, 1, c.VisitCount)
	assert.NotEmpty(t, c.ID)
	firstVisit := c.LastVisit

	again, err := f.ledger.RecordVisit(ctx, entity.CustomerRef{Name: "  rAMESH "}, decimal.RequireFromString("50.5"))
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID, "name matches ignore case")
	assert.Equal(t, 2, again.VisitCount)
	assert.True(t, again.TotalSpent.Equal(decimal.RequireFromString("150.5")))
	assert.True(t, again.LastVisit.After(firstVisit))

	list, _ := f.ledger.List(ctx)
	assert.Len(t, list, 1)
	assert.Equal(t, []event.Type{event.TypeCustomerUpserted, event.TypeCustomerUpserted}, f.events.types())
}

func TestCustomerLedger_MatchesByContactAndLearnsHandles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.ledger.RecordVisit(ctx, entity.CustomerRef{Contact: "9876543210"}, decimal.Zero)
	require.NoError(t, err)
	assert.Empty(t, c.Name)

	again, err := f.ledger.RecordVisit(ctx, entity.CustomerRef{Name: "Suresh", Contact: "9876543210"}, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
	assert.Equal(t, "Suresh", again.Name)
}

func TestCustomerLedger_IsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ref := entity.CustomerRef{Name: "Ramesh"}

	_, _ = f.ledger.RecordVisit(ctx, ref, decimal.NewFromInt(10))
	c, _ := f.ledger.RecordVisit(ctx, ref, decimal.NewFromInt(10))

	assert.Equal(t, 2, c.VisitCount)
	assert.True(t, c.TotalSpent.Equal(decimal.NewFromInt(20)))
}

func TestCustomerLedger_RejectsEmptyRef(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.RecordVisit(context.Background(), entity.CustomerRef{Name: "  "}, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrNoCustomer)
	assert.Empty(t, f.events.types())
}
