package billing

import (
	"fmt"
	"time"

	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/google/uuid"
)

// InvoiceComposer aggregates computed lines into a draft invoice
type InvoiceComposer struct {
	computer *LineItemComputer
	now      func() time.Time
	newID    func() string
}

// ComposerOption configures the composer
type ComposerOption func(*InvoiceComposer)

// WithClock overrides the creation timestamp source
func WithClock(now func() time.Time) ComposerOption {
	return func(c *InvoiceComposer) {
		c.now = now
	}
}

// WithIDGenerator overrides invoice id generation
func WithIDGenerator(newID func() string) ComposerOption {
	return func(c *InvoiceComposer) {
		c.newID = newID
	}
}

// NewInvoiceComposer creates a composer
func NewInvoiceComposer(computer *LineItemComputer, opts ...ComposerOption) *InvoiceComposer {
	c := &InvoiceComposer{
		computer: computer,
		now:      time.Now,
		newID:    newInvoiceID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose prices every raw item, keeping input order, and returns a Pending
// draft. Totals are derived from the lines on every read.
func (c *InvoiceComposer) Compose(items []RawItem, customer entity.CustomerRef) *entity.Invoice {
	lines := make([]entity.LineItem, 0, len(items))
	for _, raw := range items {
		lines = append(lines, c.computer.Compute(raw))
	}

	return &entity.Invoice{
		ID:            c.newID(),
		Items:         lines,
		CreatedAt:     c.now(),
		PaymentStatus: entity.PaymentPending,
		Customer:      customer,
	}
}

// newInvoiceID uses a v7 uuid so ids sort by creation time
func newInvoiceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("INV%d", time.Now().UnixNano())
	}
	return "INV-" + id.String()
}
