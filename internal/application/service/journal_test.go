package service

import (
	"context"
	"sync"
	"testing"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/billing"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEventLog struct {
	mu      sync.Mutex
	entries []*event.Event
}

func (m *mockEventLog) Append(ctx context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, evt)
	return nil
}

func (m *mockEventLog) ListBySubject(ctx context.Context, subjectID string) ([]port.EventRecord, error) {
	return nil, nil
}

func TestRegisterJournal(t *testing.T) {
	d := dispatcher.NewDispatcher()
	log := &mockEventLog{}
	RegisterJournal(d, log)

	for _, typ := range journaledTypes {
		handlers := d.ListHandlers(typ)
		require.Len(t, handlers, 1, typ)
		assert.Equal(t, JournalHandlerName, handlers[0].Name)
	}

	f := newFixture(t)
	lc := NewInvoiceLifecycle(f.composer, f.invoices, f.ledger, nil, d, f.logger)
	lc.Compose(context.Background(), []billing.RawItem{riceItem}, entity.CustomerRef{})

	require.Len(t, log.entries, 1)
	assert.Equal(t, event.TypeDraftSet, log.entries[0].Type)
}
