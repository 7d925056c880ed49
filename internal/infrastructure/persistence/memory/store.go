// Package memory keeps the shop's records in process memory. It is the
// default store: one set of records owned by the conversation host.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
)

// Transactions satisfies port.TransactionManager for the in-memory store.
// Writes are applied immediately and undone, newest first, when fn fails.
// A transaction started inside another joins it.
type Transactions struct{}

type undoLog struct {
	mu   sync.Mutex
	undo []func()
}

type undoKey struct{}

func (Transactions) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(undoKey{}).(*undoLog); ok {
		return fn(ctx)
	}

	log := &undoLog{}
	if err := fn(context.WithValue(ctx, undoKey{}, log)); err != nil {
		log.rollback()
		return err
	}
	return nil
}

func (l *undoLog) rollback() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.undo) - 1; i >= 0; i-- {
		l.undo[i]()
	}
	l.undo = nil
}

// onRollback registers fn to run if the surrounding transaction fails. It
// must be called without holding a repository lock that fn takes.
func onRollback(ctx context.Context, fn func()) {
	if l, ok := ctx.Value(undoKey{}).(*undoLog); ok {
		l.mu.Lock()
		l.undo = append(l.undo, fn)
		l.mu.Unlock()
	}
}

// InvoiceRepository keeps finalized invoices most recent first
type InvoiceRepository struct {
	mu       sync.RWMutex
	invoices []*entity.Invoice
}

// NewInvoiceRepository creates an empty invoice collection
func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{}
}

func (r *InvoiceRepository) Prepend(ctx context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	for _, existing := range r.invoices {
		if existing.ID == inv.ID {
			r.mu.Unlock()
			return fmt.Errorf("invoice %s already finalized", inv.ID)
		}
	}
	r.invoices = append([]*entity.Invoice{inv.Clone()}, r.invoices...)
	r.mu.Unlock()

	id := inv.ID
	onRollback(ctx, func() { r.remove(id) })
	return nil
}

func (r *InvoiceRepository) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, inv := range r.invoices {
		if inv.ID == id {
			r.invoices = append(r.invoices[:i:i], r.invoices[i+1:]...)
			return
		}
	}
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inv := range r.invoices {
		if inv.ID == id {
			return inv.Clone(), nil
		}
	}
	return nil, fmt.Errorf("invoice %s: %w", id, port.ErrNotFound)
}

func (r *InvoiceRepository) List(ctx context.Context) ([]*entity.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Invoice, len(r.invoices))
	for i, inv := range r.invoices {
		out[i] = inv.Clone()
	}
	return out, nil
}

func (r *InvoiceRepository) UpdatePayment(ctx context.Context, id string, status entity.PaymentStatus, mode entity.PaymentMode) error {
	prevStatus, prevMode, ok := r.setPayment(id, status, mode)
	if !ok {
		return fmt.Errorf("invoice %s: %w", id, port.ErrNotFound)
	}
	onRollback(ctx, func() { r.setPayment(id, prevStatus, prevMode) })
	return nil
}

func (r *InvoiceRepository) setPayment(id string, status entity.PaymentStatus, mode entity.PaymentMode) (entity.PaymentStatus, entity.PaymentMode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inv := range r.invoices {
		if inv.ID == id {
			prevStatus, prevMode := inv.PaymentStatus, inv.PaymentMode
			inv.PaymentStatus = status
			inv.PaymentMode = mode
			return prevStatus, prevMode, true
		}
	}
	return "", "", false
}

func (r *InvoiceRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.invoices), nil
}

// CustomerRepository keeps customers in first-seen order
type CustomerRepository struct {
	mu        sync.RWMutex
	customers []*entity.Customer
}

// NewCustomerRepository creates an empty customer ledger
func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{}
}

// FindByRef prefers a contact handle match over a name match so two people
// sharing a name stay apart when their numbers are known
func (r *CustomerRepository) FindByRef(ctx context.Context, ref entity.CustomerRef) (*entity.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if contact := strings.TrimSpace(ref.Contact); contact != "" {
		for _, c := range r.customers {
			if c.Matches(entity.CustomerRef{Contact: contact}) {
				cp := *c
				return &cp, nil
			}
		}
	}
	if name := strings.TrimSpace(ref.Name); name != "" {
		for _, c := range r.customers {
			if c.Matches(entity.CustomerRef{Name: name}) {
				cp := *c
				return &cp, nil
			}
		}
	}
	return nil, fmt.Errorf("customer %+v: %w", ref, port.ErrNotFound)
}

func (r *CustomerRepository) Save(ctx context.Context, c *entity.Customer) error {
	prev := r.put(c)
	id := c.ID
	onRollback(ctx, func() {
		if prev != nil {
			r.put(prev)
		} else {
			r.remove(id)
		}
	})
	return nil
}

// put stores a copy of c and returns the record it replaced, if any
func (r *CustomerRepository) put(c *entity.Customer) *entity.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *c
	for i, existing := range r.customers {
		if existing.ID == c.ID {
			r.customers[i] = &cp
			return existing
		}
	}
	r.customers = append(r.customers, &cp)
	return nil
}

func (r *CustomerRepository) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.customers {
		if c.ID == id {
			r.customers = append(r.customers[:i:i], r.customers[i+1:]...)
			return
		}
	}
}

func (r *CustomerRepository) List(ctx context.Context) ([]*entity.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Customer, len(r.customers))
	for i, c := range r.customers {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

// ReminderRepository keeps reminders in creation order
type ReminderRepository struct {
	mu        sync.RWMutex
	reminders []*entity.Reminder
}

// NewReminderRepository creates an empty reminder list
func NewReminderRepository() *ReminderRepository {
	return &ReminderRepository{}
}

func (r *ReminderRepository) Create(ctx context.Context, rem *entity.Reminder) error {
	r.mu.Lock()
	for _, existing := range r.reminders {
		if existing.ID == rem.ID {
			r.mu.Unlock()
			return fmt.Errorf("reminder %s already exists", rem.ID)
		}
	}
	cp := *rem
	r.reminders = append(r.reminders, &cp)
	r.mu.Unlock()

	id := rem.ID
	onRollback(ctx, func() { r.remove(id) })
	return nil
}

func (r *ReminderRepository) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rem := range r.reminders {
		if rem.ID == id {
			r.reminders = append(r.reminders[:i:i], r.reminders[i+1:]...)
			return
		}
	}
}

func (r *ReminderRepository) GetByID(ctx context.Context, id string) (*entity.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rem := range r.reminders {
		if rem.ID == id {
			cp := *rem
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("reminder %s: %w", id, port.ErrNotFound)
}

func (r *ReminderRepository) Update(ctx context.Context, rem *entity.Reminder) error {
	prev := r.replace(rem)
	if prev == nil {
		return fmt.Errorf("reminder %s: %w", rem.ID, port.ErrNotFound)
	}
	onRollback(ctx, func() { r.replace(prev) })
	return nil
}

// replace swaps in a copy of rem and returns the record it replaced, or nil
// when there is none
func (r *ReminderRepository) replace(rem *entity.Reminder) *entity.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.reminders {
		if existing.ID == rem.ID {
			cp := *rem
			r.reminders[i] = &cp
			return existing
		}
	}
	return nil
}

func (r *ReminderRepository) List(ctx context.Context) ([]*entity.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Reminder, len(r.reminders))
	for i, rem := range r.reminders {
		cp := *rem
		out[i] = &cp
	}
	return out, nil
}

var (
	_ port.TransactionManager = Transactions{}
	_ port.InvoiceRepository  = (*InvoiceRepository)(nil)
	_ port.CustomerRepository = (*CustomerRepository)(nil)
	_ port.ReminderRepository = (*ReminderRepository)(nil)
)
