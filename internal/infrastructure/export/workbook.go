// Package export renders finalized invoices as xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names
const (
	SheetInvoices = "Invoices"
	SheetItems    = "Items"
)

// ContentType is the MIME type of the produced workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	invoiceHeader = []interface{}{"Invoice", "Date", "Customer", "Mobile", "Sub Total", "GST", "Grand Total", "Status", "Mode"}
	itemHeader    = []interface{}{"Invoice", "#", "Product", "Item", "Quantity", "Unit", "Price", "GST Rate", "Subtotal", "Tax", "Total"}
)

// InvoiceExporter writes invoices to an xlsx workbook with one summary row
// per invoice and one row per line item
type InvoiceExporter struct {
	logger *zap.Logger
}

// NewInvoiceExporter creates a new InvoiceExporter
func NewInvoiceExporter(logger *zap.Logger) *InvoiceExporter {
	return &InvoiceExporter{logger: logger}
}

// Write renders invoices in the given order to w
func (e *InvoiceExporter) Write(w io.Writer, invoices []*entity.Invoice) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", SheetInvoices); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := file.NewSheet(SheetItems); err != nil {
		return fmt.Errorf("failed to create items sheet: %w", err)
	}

	if err := e.fillInvoices(file, invoices); err != nil {
		return fmt.Errorf("failed to fill invoices: %w", err)
	}
	if err := e.fillItems(file, invoices); err != nil {
		return fmt.Errorf("failed to fill items: %w", err)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Invoice workbook exported", zap.Int("invoice_count", len(invoices)))
	return nil
}

// FileName suggests a download name for a single invoice or the whole ledger
func FileName(invoiceID string) string {
	if invoiceID == "" {
		return "invoices.xlsx"
	}
	return invoiceID + ".xlsx"
}

func (e *InvoiceExporter) fillInvoices(file *excelize.File, invoices []*entity.Invoice) error {
	if err := file.SetSheetRow(SheetInvoices, "A1", &invoiceHeader); err != nil {
		return err
	}
	for i, inv := range invoices {
		row := []interface{}{
			inv.ID,
			inv.CreatedAt.Format("2006-01-02 15:04"),
			inv.Customer.Name,
			inv.Customer.Contact,
			amount(inv.SubTotal()),
			amount(inv.GSTTotal()),
			amount(inv.GrandTotal()),
			string(inv.PaymentStatus),
			string(inv.PaymentMode),
		}
		if err := file.SetSheetRow(SheetInvoices, cell(i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func (e *InvoiceExporter) fillItems(file *excelize.File, invoices []*entity.Invoice) error {
	if err := file.SetSheetRow(SheetItems, "A1", &itemHeader); err != nil {
		return err
	}
	r := 2
	for _, inv := range invoices {
		for n, item := range inv.Items {
			row := []interface{}{
				inv.ID,
				n + 1,
				item.ProductID,
				item.Name,
				item.Quantity.InexactFloat64(),
				item.Unit,
				amount(item.PricePerUnit),
				item.GSTRate.InexactFloat64(),
				amount(item.Subtotal()),
				amount(item.Tax()),
				amount(item.Total()),
			}
			if err := file.SetSheetRow(SheetItems, cell(r), &row); err != nil {
				return err
			}
			r++
		}
	}
	return nil
}

func cell(row int) string {
	name, _ := excelize.CoordinatesToCellName(1, row)
	return name
}

// amount rounds for display only
func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
