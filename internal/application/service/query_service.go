package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// recentInvoiceLimit caps the invoices listed on the dashboard
const recentInvoiceLimit = 5

// Summary is the read-only business overview
type Summary struct {
	TodaySales      decimal.Decimal   `json:"today_sales"`
	PendingAmount   decimal.Decimal   `json:"pending_amount"`
	PendingCount    int               `json:"pending_count"`
	InvoiceCount    int               `json:"invoice_count"`
	CustomerCount   int               `json:"customer_count"`
	ActiveReminders int               `json:"active_reminders"`
	NextReminder    *entity.Reminder  `json:"next_reminder,omitempty"`
	RecentInvoices  []*entity.Invoice `json:"recent_invoices"`
}

// QueryService answers questions about existing records without changing them
type QueryService interface {
	Summary(ctx context.Context) (*Summary, error)
	Invoices(ctx context.Context) ([]*entity.Invoice, error)
	Invoice(ctx context.Context, id string) (*entity.Invoice, error)
}

type queryServiceImpl struct {
	invoices  port.InvoiceRepository
	customers port.CustomerRepository
	reminders port.ReminderRepository
	logger    Logger
	options
}

// NewQueryService creates a new QueryService
func NewQueryService(
	invoices port.InvoiceRepository,
	customers port.CustomerRepository,
	reminders port.ReminderRepository,
	logger Logger,
	opts ...Option,
) QueryService {
	return &queryServiceImpl{
		invoices:  invoices,
		customers: customers,
		reminders: reminders,
		logger:    logger,
		options:   buildOptions(opts),
	}
}

// Summary sums today's sales over invoices created on the current local
// day, and pending payments over every unpaid invoice
func (s *queryServiceImpl) Summary(ctx context.Context) (*Summary, error) {
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list invoices", "error", err)
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	customers, err := s.customers.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list customers", "error", err)
		return nil, fmt.Errorf("list customers: %w", err)
	}
	reminders, err := s.reminders.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list reminders", "error", err)
		return nil, fmt.Errorf("list reminders: %w", err)
	}

	now := s.now()
	sum := &Summary{
		TodaySales:     decimal.Zero,
		PendingAmount:  decimal.Zero,
		InvoiceCount:   len(invoices),
		CustomerCount:  len(customers),
		RecentInvoices: []*entity.Invoice{},
	}

	for i, inv := range invoices {
		if sameDay(inv.CreatedAt, now) {
			sum.TodaySales = sum.TodaySales.Add(inv.GrandTotal())
		}
		if inv.IsPending() {
			sum.PendingAmount = sum.PendingAmount.Add(inv.GrandTotal())
			sum.PendingCount++
		}
		if i < recentInvoiceLimit {
			sum.RecentInvoices = append(sum.RecentInvoices, inv)
		}
	}

	for _, r := range reminders {
		if !r.IsPending() {
			continue
		}
		sum.ActiveReminders++
		if sum.NextReminder == nil {
			sum.NextReminder = r
		}
	}

	return sum, nil
}

func (s *queryServiceImpl) Invoices(ctx context.Context) ([]*entity.Invoice, error) {
	invoices, err := s.invoices.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list invoices", "error", err)
		return nil, err
	}
	return invoices, nil
}

func (s *queryServiceImpl) Invoice(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
