package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/billing"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/domain/event"
	"github.com/bharatbiz/bizagent/internal/domain/workflow"
)

// Reasons carried by draft.cleared events
const (
	ReasonConfirmed = "confirmed"
	ReasonDiscarded = "discarded"
)

// InvoiceLifecycle owns the at most one draft invoice of a conversation and
// the only path from a draft into the permanent invoice collection.
//
// Composing while a draft is pending replaces it: the last billing intent
// wins and the previous draft leaves no trace.
type InvoiceLifecycle interface {
	// Compose prices items into a new draft. replaced reports whether a
	// pending draft was dropped. An empty item list changes nothing.
	Compose(ctx context.Context, items []billing.RawItem, customer entity.CustomerRef) (draft *entity.Invoice, replaced bool)
	// Confirm finalizes the pending draft. Without a draft it is a no-op.
	Confirm(ctx context.Context) (inv *entity.Invoice, ok bool, err error)
	// Discard drops the pending draft. Without a draft it is a no-op.
	Discard(ctx context.Context) (dropped *entity.Invoice, ok bool)
	// Draft returns a copy of the pending draft, or nil
	Draft() *entity.Invoice
	State() workflow.State
}

type invoiceLifecycleImpl struct {
	machine  workflow.StateMachine
	draft    *entity.Invoice
	composer *billing.InvoiceComposer
	invoices port.InvoiceRepository
	ledger   CustomerLedger
	tx       port.TransactionManager
	publisher
}

// NewInvoiceLifecycle creates the draft lifecycle for one conversation
func NewInvoiceLifecycle(
	composer *billing.InvoiceComposer,
	invoices port.InvoiceRepository,
	ledger CustomerLedger,
	tx port.TransactionManager,
	d dispatcher.Dispatcher,
	logger Logger,
) InvoiceLifecycle {
	return &invoiceLifecycleImpl{
		machine:   workflow.NewDraftMachine(),
		composer:  composer,
		invoices:  invoices,
		ledger:    ledger,
		tx:        tx,
		publisher: publisher{dispatcher: d, logger: logger},
	}
}

func (s *invoiceLifecycleImpl) Compose(ctx context.Context, items []billing.RawItem, customer entity.CustomerRef) (*entity.Invoice, bool) {
	replaced := s.machine.State().HasDraft()
	if err := s.machine.Fire(workflow.WithItemCount(ctx, len(items)), workflow.TriggerCompose); err != nil {
		if !errors.Is(err, workflow.ErrGuardFailed) {
			s.logger.Error("Compose refused", "error", err, "state", s.machine.State())
		}
		return nil, false
	}

	if replaced {
		s.logger.Info("Pending draft replaced", "previous_invoice_id", s.draft.ID)
	}

	s.draft = s.composer.Compose(items, customer)

	s.logger.Info("Draft invoice composed",
		"invoice_id", s.draft.ID,
		"items", len(s.draft.Items),
		"grand_total", s.draft.GrandTotal().String(),
	)
	s.publish(ctx, event.TypeDraftSet, s.draft.ID, map[string]interface{}{
		event.KeyInvoice:  s.draft.Clone(),
		event.KeyReplaced: replaced,
	})

	return s.draft.Clone(), replaced
}

func (s *invoiceLifecycleImpl) Confirm(ctx context.Context) (*entity.Invoice, bool, error) {
	if !s.machine.CanFire(workflow.TriggerConfirm) {
		return nil, false, nil
	}

	inv := s.draft.Clone()

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if !inv.Customer.IsZero() {
			customer, err := s.ledger.RecordVisit(txCtx, inv.Customer, inv.GrandTotal())
			if err != nil {
				return fmt.Errorf("record visit: %w", err)
			}
			inv.CustomerID = customer.ID
		}
		if err := s.invoices.Prepend(txCtx, inv); err != nil {
			return fmt.Errorf("store invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to finalize invoice", "error", err, "invoice_id", inv.ID)
		return nil, false, err
	}

	if err := s.machine.Fire(ctx, workflow.TriggerConfirm); err != nil {
		return nil, false, err
	}
	s.draft = nil

	s.logger.Info("Invoice finalized", "invoice_id", inv.ID, "customer_id", inv.CustomerID)
	s.publish(ctx, event.TypeInvoiceFinalized, inv.ID, map[string]interface{}{event.KeyInvoice: inv.Clone()})
	s.publish(ctx, event.TypeDraftCleared, inv.ID, map[string]interface{}{event.KeyReason: ReasonConfirmed})

	return inv, true, nil
}

func (s *invoiceLifecycleImpl) Discard(ctx context.Context) (*entity.Invoice, bool) {
	if !s.machine.CanFire(workflow.TriggerDiscard) {
		return nil, false
	}
	if err := s.machine.Fire(ctx, workflow.TriggerDiscard); err != nil {
		return nil, false
	}

	dropped := s.draft
	s.draft = nil

	s.logger.Info("Draft invoice discarded", "invoice_id", dropped.ID)
	s.publish(ctx, event.TypeDraftCleared, dropped.ID, map[string]interface{}{event.KeyReason: ReasonDiscarded})

	return dropped, true
}

func (s *invoiceLifecycleImpl) Draft() *entity.Invoice {
	return s.draft.Clone()
}

func (s *invoiceLifecycleImpl) State() workflow.State {
	return s.machine.State()
}
