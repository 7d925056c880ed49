package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/billing"
	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/domain/event"
	"github.com/bharatbiz/bizagent/internal/infrastructure/persistence/memory"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

// eventRecorder subscribes to every event type and keeps what it saw
type eventRecorder struct {
	mu     sync.Mutex
	events []*event.Event
}

func newEventRecorder(d dispatcher.Dispatcher) *eventRecorder {
	r := &eventRecorder{}
	for _, t := range journaledTypes {
		d.Subscribe(t, func(ctx context.Context, evt *event.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, evt)
			return nil
		})
	}
	return r
}

func (r *eventRecorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// fixedClock returns a clock that advances by one minute per call
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := t
		t = t.Add(time.Minute)
		return now
	}
}

type failingInvoiceRepo struct {
	*memory.InvoiceRepository
}

func (failingInvoiceRepo) Prepend(ctx context.Context, inv *entity.Invoice) error {
	return errors.New("disk full")
}

// flakyInvoiceRepo fails Prepend until healed
type flakyInvoiceRepo struct {
	*memory.InvoiceRepository
	healed bool
}

func (r *flakyInvoiceRepo) Prepend(ctx context.Context, inv *entity.Invoice) error {
	if !r.healed {
		return errors.New("disk full")
	}
	return r.InvoiceRepository.Prepend(ctx, inv)
}

// fixture wires the services over the in-memory store
type fixture struct {
	logger     *mockLogger
	dispatcher dispatcher.Dispatcher
	events     *eventRecorder
	invoices   *memory.InvoiceRepository
	customers  *memory.CustomerRepository
	reminders  *memory.ReminderRepository
	ledger     CustomerLedger
	queue      ReminderQueue
	payments   PaymentService
	queries    QueryService
	composer   *billing.InvoiceComposer
	clock      func() time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		logger:    &mockLogger{},
		invoices:  memory.NewInvoiceRepository(),
		customers: memory.NewCustomerRepository(),
		reminders: memory.NewReminderRepository(),
		clock:     fixedClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)),
	}
	f.dispatcher = dispatcher.NewDispatcher()
	f.events = newEventRecorder(f.dispatcher)

	cat := catalog.Default()
	f.composer = billing.NewInvoiceComposer(
		billing.NewLineItemComputer(cat, cat.Taxes()),
		billing.WithClock(f.clock),
	)
	f.ledger = NewCustomerLedger(f.customers, f.dispatcher, f.logger, WithClock(f.clock))
	f.queue = NewReminderQueue(f.reminders, f.dispatcher, f.logger, WithClock(f.clock))
	f.payments = NewPaymentService(f.ledger, f.invoices, memory.Transactions{}, f.dispatcher, f.logger)
	f.queries = NewQueryService(f.invoices, f.customers, f.reminders, f.logger, WithClock(f.clock))
	return f
}

func (f *fixture) lifecycle() InvoiceLifecycle {
	return f.lifecycleWith(f.invoices)
}

func (f *fixture) lifecycleWith(invoices port.InvoiceRepository) InvoiceLifecycle {
	return NewInvoiceLifecycle(f.composer, invoices, f.ledger, memory.Transactions{}, f.dispatcher, f.logger)
}
