package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Customer aggregates finalized bills and payments for one person
type Customer struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Contact    string          `json:"mobile"`
	VisitCount int             `json:"visit_count"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	LastVisit  time.Time       `json:"last_visit"`
}

// Matches reports whether ref identifies this customer, by contact handle or
// by name, ignoring case
func (c *Customer) Matches(ref CustomerRef) bool {
	if ref.Contact != "" && strings.EqualFold(strings.TrimSpace(c.Contact), strings.TrimSpace(ref.Contact)) {
		return true
	}
	if ref.Name != "" && strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(ref.Name)) {
		return true
	}
	return false
}

// Ref returns the reference that identifies this customer
func (c *Customer) Ref() CustomerRef {
	return CustomerRef{Name: c.Name, Contact: c.Contact}
}
