package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/domain/event"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoCustomer is returned when a customer reference names nobody
var ErrNoCustomer = errors.New("customer reference is empty")

// CustomerLedger aggregates visits and spend per customer
type CustomerLedger interface {
	// RecordVisit finds or creates the customer, counts one visit and adds
	// amount to the spend. It is not idempotent: each call counts.
	RecordVisit(ctx context.Context, ref entity.CustomerRef, amount decimal.Decimal) (*entity.Customer, error)
	List(ctx context.Context) ([]*entity.Customer, error)
}

type customerLedgerImpl struct {
	repo port.CustomerRepository
	publisher
	options
}

// NewCustomerLedger creates a new CustomerLedger
func NewCustomerLedger(
	repo port.CustomerRepository,
	d dispatcher.Dispatcher,
	logger Logger,
	opts ...Option,
) CustomerLedger {
	return &customerLedgerImpl{
		repo:      repo,
		publisher: publisher{dispatcher: d, logger: logger},
		options:   buildOptions(opts),
	}
}

func (s *customerLedgerImpl) RecordVisit(ctx context.Context, ref entity.CustomerRef, amount decimal.Decimal) (*entity.Customer, error) {
	ref = entity.CustomerRef{Name: strings.TrimSpace(ref.Name), Contact: strings.TrimSpace(ref.Contact)}
	if ref.IsZero() {
		return nil, ErrNoCustomer
	}

	customer, err := s.repo.FindByRef(ctx, ref)
	switch {
	case errors.Is(err, port.ErrNotFound):
		customer = &entity.Customer{
			ID:         uuid.NewString(),
			Name:       ref.Name,
			Contact:    ref.Contact,
			TotalSpent: decimal.Zero,
		}
	case err != nil:
		s.logger.Error("Failed to look up customer", "error", err, "customer", ref.Name, "contact", ref.Contact)
		return nil, fmt.Errorf("find customer: %w", err)
	default:
		// learn whichever handle was missing
		if customer.Name == "" {
			customer.Name = ref.Name
		}
		if customer.Contact == "" {
			customer.Contact = ref.Contact
		}
	}

	customer.VisitCount++
	customer.TotalSpent = customer.TotalSpent.Add(amount)
	customer.LastVisit = s.now()

	if err := s.repo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to save customer", "error", err, "customer_id", customer.ID)
		return nil, fmt.Errorf("save customer: %w", err)
	}

	s.logger.Info("Customer visit recorded",
		"customer_id", customer.ID,
		"visit_count", customer.VisitCount,
		"amount", amount.String(),
	)
	s.publish(ctx, event.TypeCustomerUpserted, customer.ID, map[string]interface{}{event.KeyCustomer: customer})

	return customer, nil
}

func (s *customerLedgerImpl) List(ctx context.Context) ([]*entity.Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list customers", "error", err)
		return nil, err
	}
	return customers, nil
}
