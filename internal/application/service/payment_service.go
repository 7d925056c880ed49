package service

import (
	"context"
	"fmt"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/domain/event"
	"github.com/shopspring/decimal"
)

// PaymentResult is the outcome of a recorded payment
type PaymentResult struct {
	Customer *entity.Customer `json:"customer"`
	// Settled is the invoice marked paid, nil when the customer had none pending
	Settled *entity.Invoice `json:"settled,omitempty"`
}

// PaymentService records a customer's payment against the ledger
type PaymentService interface {
	// RecordPayment counts a visit for the customer and marks their most
	// recently created pending invoice as paid. The amount is not checked
	// against the invoice total.
	RecordPayment(ctx context.Context, ref entity.CustomerRef, amount decimal.Decimal, mode entity.PaymentMode) (*PaymentResult, error)
}

type paymentServiceImpl struct {
	ledger   CustomerLedger
	invoices port.InvoiceRepository
	tx       port.TransactionManager
	publisher
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	ledger CustomerLedger,
	invoices port.InvoiceRepository,
	tx port.TransactionManager,
	d dispatcher.Dispatcher,
	logger Logger,
) PaymentService {
	return &paymentServiceImpl{
		ledger:    ledger,
		invoices:  invoices,
		tx:        tx,
		publisher: publisher{dispatcher: d, logger: logger},
	}
}

func (s *paymentServiceImpl) RecordPayment(ctx context.Context, ref entity.CustomerRef, amount decimal.Decimal, mode entity.PaymentMode) (*PaymentResult, error) {
	result := &PaymentResult{}

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		customer, err := s.ledger.RecordVisit(txCtx, ref, amount)
		if err != nil {
			return err
		}
		result.Customer = customer

		invoices, err := s.invoices.List(txCtx)
		if err != nil {
			return fmt.Errorf("list invoices: %w", err)
		}

		target := mostRecentPending(invoices, customer.ID)
		if target == nil {
			return nil
		}

		if err := s.invoices.UpdatePayment(txCtx, target.ID, entity.PaymentPaid, mode); err != nil {
			return fmt.Errorf("mark invoice paid: %w", err)
		}
		target.PaymentStatus = entity.PaymentPaid
		target.PaymentMode = mode
		result.Settled = target
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record payment", "error", err, "customer", ref.Name, "contact", ref.Contact)
		return nil, err
	}

	if result.Settled != nil {
		s.logger.Info("Invoice paid", "invoice_id", result.Settled.ID, "customer_id", result.Customer.ID, "mode", mode)
		s.publish(ctx, event.TypeInvoicePaid, result.Settled.ID, map[string]interface{}{event.KeyInvoice: result.Settled})
	} else {
		s.logger.Info("Payment recorded without pending invoice", "customer_id", result.Customer.ID)
	}

	return result, nil
}

// mostRecentPending picks the pending invoice of customerID with the latest
// creation time. invoices are most recent first, so equal times resolve to
// the one finalized last.
func mostRecentPending(invoices []*entity.Invoice, customerID string) *entity.Invoice {
	var best *entity.Invoice
	for _, inv := range invoices {
		if !inv.IsPending() || inv.CustomerID != customerID {
			continue
		}
		if best == nil || inv.CreatedAt.After(best.CreatedAt) {
			best = inv
		}
	}
	return best
}
