package port

import (
	"context"
	"errors"
	"time"

	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/domain/event"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// InvoiceRepository holds finalized invoices, most recent first
type InvoiceRepository interface {
	// Prepend inserts a finalized invoice at the head of the collection
	Prepend(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// List returns all invoices, most recent first
	List(ctx context.Context) ([]*entity.Invoice, error)
	// UpdatePayment changes the only mutable fields of a finalized invoice
	UpdatePayment(ctx context.Context, id string, status entity.PaymentStatus, mode entity.PaymentMode) error
	Count(ctx context.Context) (int, error)
}

// CustomerRepository holds the customer ledger
type CustomerRepository interface {
	// FindByRef matches by contact handle first, then by name, case-insensitively
	FindByRef(ctx context.Context, ref entity.CustomerRef) (*entity.Customer, error)
	Save(ctx context.Context, c *entity.Customer) error
	List(ctx context.Context) ([]*entity.Customer, error)
}

// ReminderRepository holds reminders in creation order
type ReminderRepository interface {
	Create(ctx context.Context, r *entity.Reminder) error
	GetByID(ctx context.Context, id string) (*entity.Reminder, error)
	Update(ctx context.Context, r *entity.Reminder) error
	List(ctx context.Context) ([]*entity.Reminder, error)
}

// TransactionManager runs fn so that every repository write inside it commits
// or fails together
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventRecord is a journaled domain event with its payload flattened to JSON
type EventRecord struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	SubjectID     string    `json:"subject_id"`
	CorrelationID string    `json:"correlation_id"`
	Payload       string    `json:"payload"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventLog is an append-only journal of published domain events
type EventLog interface {
	Append(ctx context.Context, evt *event.Event) error
	ListBySubject(ctx context.Context, subjectID string) ([]EventRecord, error)
}
