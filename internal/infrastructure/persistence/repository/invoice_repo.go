package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// InvoiceRepository implements port.InvoiceRepository on sqlite. Line items
// are stored with their snapshotted price and rate; totals are never stored.
type InvoiceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sqlite.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Prepend inserts the invoice with the next sequence number so it lists first
func (r *InvoiceRepository) Prepend(ctx context.Context, inv *entity.Invoice) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		_, err := exec.ExecContext(ctx, `
			INSERT INTO invoices (
				id, seq, created_at, payment_status, payment_mode,
				customer_name, customer_contact, customer_id
			) VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM invoices), ?, ?, ?, ?, ?, ?)
		`,
			inv.ID,
			inv.CreatedAt,
			string(inv.PaymentStatus),
			string(inv.PaymentMode),
			inv.Customer.Name,
			inv.Customer.Contact,
			inv.CustomerID,
		)
		if err != nil {
			r.logger.Error("Failed to insert invoice", zap.String("invoice_id", inv.ID), zap.Error(err))
			return fmt.Errorf("failed to insert invoice: %w", err)
		}

		for i, item := range inv.Items {
			_, err := exec.ExecContext(ctx, `
				INSERT INTO invoice_items (
					invoice_id, position, product_id, name, quantity, unit, price_per_unit, gst_rate
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
				inv.ID, i, item.ProductID, item.Name,
				item.Quantity, item.Unit, item.PricePerUnit, item.GSTRate,
			)
			if err != nil {
				r.logger.Error("Failed to insert invoice item", zap.String("invoice_id", inv.ID), zap.Int("position", i), zap.Error(err))
				return fmt.Errorf("failed to insert invoice item %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetByID retrieves an invoice with its items
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, invoiceSelect+` WHERE id = ?`, id)

	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.String("invoice_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if inv.Items, err = r.items(ctx, id); err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns every invoice, most recent first
func (r *InvoiceRepository) List(ctx context.Context) ([]*entity.Invoice, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, invoiceSelect+` ORDER BY seq DESC`)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	var invoices []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, inv := range invoices {
		if inv.Items, err = r.items(ctx, inv.ID); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// UpdatePayment sets the payment fields of a finalized invoice
func (r *InvoiceRepository) UpdatePayment(ctx context.Context, id string, status entity.PaymentStatus, mode entity.PaymentMode) error {
	res, err := r.db.Executor(ctx).ExecContext(ctx,
		`UPDATE invoices SET payment_status = ?, payment_mode = ? WHERE id = ?`,
		string(status), string(mode), id,
	)
	if err != nil {
		r.logger.Error("Failed to update invoice payment", zap.String("invoice_id", id), zap.Error(err))
		return fmt.Errorf("failed to update invoice payment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("invoice %s: %w", id, port.ErrNotFound)
	}
	return nil
}

// Count returns the number of finalized invoices
func (r *InvoiceRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Executor(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return n, nil
}

const invoiceSelect = `
	SELECT id, created_at, payment_status, payment_mode, customer_name, customer_contact, customer_id
	FROM invoices`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(s scanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var status, mode string

	err := s.Scan(
		&inv.ID,
		&inv.CreatedAt,
		&status,
		&mode,
		&inv.Customer.Name,
		&inv.Customer.Contact,
		&inv.CustomerID,
	)
	if err != nil {
		return nil, err
	}

	inv.PaymentStatus = entity.PaymentStatus(status)
	inv.PaymentMode = entity.PaymentMode(mode)
	return &inv, nil
}

func (r *InvoiceRepository) items(ctx context.Context, invoiceID string) ([]entity.LineItem, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT product_id, name, quantity, unit, price_per_unit, gst_rate
		FROM invoice_items
		WHERE invoice_id = ?
		ORDER BY position
	`, invoiceID)
	if err != nil {
		r.logger.Error("Failed to get invoice items", zap.String("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice items: %w", err)
	}
	defer rows.Close()

	items := []entity.LineItem{}
	for rows.Next() {
		var item entity.LineItem
		if err := rows.Scan(
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.Unit,
			&item.PricePerUnit,
			&item.GSTRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
