package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// CustomerRepository implements port.CustomerRepository on sqlite
type CustomerRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *sqlite.DB, logger *zap.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

const customerSelect = `
	SELECT id, name, contact, visit_count, total_spent, last_visit
	FROM customers`

// FindByRef matches the contact handle first, then the name, ignoring case.
// Ties go to the customer seen first.
func (r *CustomerRepository) FindByRef(ctx context.Context, ref entity.CustomerRef) (*entity.Customer, error) {
	if contact := strings.TrimSpace(ref.Contact); contact != "" {
		c, err := r.findOne(ctx, customerSelect+` WHERE lower(contact) = lower(?) ORDER BY created_seq LIMIT 1`, contact)
		if err == nil || !errors.Is(err, port.ErrNotFound) {
			return c, err
		}
	}
	if name := strings.TrimSpace(ref.Name); name != "" {
		c, err := r.findOne(ctx, customerSelect+` WHERE lower(name) = lower(?) ORDER BY created_seq LIMIT 1`, name)
		if err == nil || !errors.Is(err, port.ErrNotFound) {
			return c, err
		}
	}
	return nil, fmt.Errorf("customer %+v: %w", ref, port.ErrNotFound)
}

func (r *CustomerRepository) findOne(ctx context.Context, query string, arg string) (*entity.Customer, error) {
	c, err := scanCustomer(r.db.Executor(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to find customer", zap.Error(err))
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return c, nil
}

// Save inserts or replaces the customer by id
func (r *CustomerRepository) Save(ctx context.Context, c *entity.Customer) error {
	var lastVisit sql.NullTime
	if !c.LastVisit.IsZero() {
		lastVisit = sql.NullTime{Time: c.LastVisit, Valid: true}
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO customers (id, name, contact, visit_count, total_spent, last_visit, created_seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(created_seq), 0) + 1 FROM customers))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			contact = excluded.contact,
			visit_count = excluded.visit_count,
			total_spent = excluded.total_spent,
			last_visit = excluded.last_visit
	`,
		c.ID,
		strings.TrimSpace(c.Name),
		strings.TrimSpace(c.Contact),
		c.VisitCount,
		c.TotalSpent,
		lastVisit,
	)
	if err != nil {
		r.logger.Error("Failed to save customer", zap.String("customer_id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

// List returns customers in first-seen order
func (r *CustomerRepository) List(ctx context.Context) ([]*entity.Customer, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, customerSelect+` ORDER BY created_seq`)
	if err != nil {
		r.logger.Error("Failed to list customers", zap.Error(err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var customers []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func scanCustomer(s scanner) (*entity.Customer, error) {
	var c entity.Customer
	var lastVisit sql.NullTime

	if err := s.Scan(&c.ID, &c.Name, &c.Contact, &c.VisitCount, &c.TotalSpent, &lastVisit); err != nil {
		return nil, err
	}
	if lastVisit.Valid {
		c.LastVisit = lastVisit.Time
	}
	return &c, nil
}

var _ port.CustomerRepository = (*CustomerRepository)(nil)
