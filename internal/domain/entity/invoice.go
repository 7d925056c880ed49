package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one priced, taxed line of an invoice. The tax rate is a
// snapshot taken when the line was computed. Amounts are derived on read.
type LineItem struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	GSTRate      decimal.Decimal `json:"gst_rate"`
}

// Subtotal is quantity x price
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.PricePerUnit)
}

// Tax is subtotal x rate
func (l LineItem) Tax() decimal.Decimal {
	return l.Subtotal().Mul(l.GSTRate)
}

// Total is subtotal + tax
func (l LineItem) Total() decimal.Decimal {
	return l.Subtotal().Add(l.Tax())
}

// IsManual reports whether the line matched no catalog product
func (l LineItem) IsManual() bool {
	return l.ProductID == ManualProductID
}

// MarshalJSON includes the derived amounts
func (l LineItem) MarshalJSON() ([]byte, error) {
	type alias LineItem
	return json.Marshal(struct {
		alias
		Subtotal decimal.Decimal `json:"subtotal"`
		Tax      decimal.Decimal `json:"tax"`
		Total    decimal.Decimal `json:"total"`
	}{
		alias:    alias(l),
		Subtotal: l.Subtotal(),
		Tax:      l.Tax(),
		Total:    l.Total(),
	})
}

// CustomerRef is the customer a bill or payment refers to, by name and/or
// contact handle (usually a mobile number)
type CustomerRef struct {
	Name    string `json:"name,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// IsZero reports whether the reference names nobody
func (r CustomerRef) IsZero() bool {
	return r.Name == "" && r.Contact == ""
}

// Invoice is a bill. Drafts live only in the conversation context; once
// finalized the items are frozen and only payment fields change.
type Invoice struct {
	ID            string        `json:"id"`
	Items         []LineItem    `json:"items"`
	CreatedAt     time.Time     `json:"date"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMode   PaymentMode   `json:"payment_mode,omitempty"`
	Customer      CustomerRef   `json:"customer,omitempty"`
	CustomerID    string        `json:"customer_id,omitempty"`
}

// SubTotal sums quantity x price over all lines
func (inv *Invoice) SubTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range inv.Items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

// GSTTotal sums quantity x price x rate over all lines
func (inv *Invoice) GSTTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range inv.Items {
		sum = sum.Add(item.Tax())
	}
	return sum
}

// GrandTotal is SubTotal + GSTTotal
func (inv *Invoice) GrandTotal() decimal.Decimal {
	return inv.SubTotal().Add(inv.GSTTotal())
}

// IsPending reports whether the invoice is awaiting payment
func (inv *Invoice) IsPending() bool {
	return inv.PaymentStatus == PaymentPending
}

// Clone returns a deep copy so callers cannot reach stored line items
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	cp := *inv
	cp.Items = make([]LineItem, len(inv.Items))
	copy(cp.Items, inv.Items)
	return &cp
}

// MarshalJSON includes the derived totals
func (inv Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice
	return json.Marshal(struct {
		alias
		SubTotal   decimal.Decimal `json:"sub_total"`
		GSTTotal   decimal.Decimal `json:"gst_total"`
		GrandTotal decimal.Decimal `json:"grand_total"`
	}{
		alias:      alias(inv),
		SubTotal:   inv.SubTotal(),
		GSTTotal:   inv.GSTTotal(),
		GrandTotal: inv.GrandTotal(),
	})
}

// Display renders an amount with two fractional digits. Stored values keep
// full precision.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}
