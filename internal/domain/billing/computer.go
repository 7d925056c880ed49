// Package billing turns loosely extracted bill lines into priced, taxed line
// items and aggregates them into draft invoices.
package billing

import (
	"strings"

	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RawItem is one bill line as extracted from free text. Zero values mean the
// field was absent or unusable.
type RawItem struct {
	Name     string
	Quantity decimal.Decimal
	Unit     string
	Price    decimal.Decimal
}

// ProductMatcher resolves a free-text item name against the catalog
type ProductMatcher interface {
	Match(name string) (catalog.Product, bool)
}

// RateTable resolves a tax category to its rate
type RateTable interface {
	Rate(category catalog.TaxCategory) decimal.Decimal
}

// LineItemComputer prices and taxes individual bill lines
type LineItemComputer struct {
	matcher ProductMatcher
	taxes   RateTable
}

// NewLineItemComputer creates a computer over the given matcher and rates
func NewLineItemComputer(matcher ProductMatcher, taxes RateTable) *LineItemComputer {
	return &LineItemComputer{
		matcher: matcher,
		taxes:   taxes,
	}
}

// Compute never fails: unmatched items fall back to the default category,
// a missing price becomes zero and a missing quantity becomes one.
func (c *LineItemComputer) Compute(raw RawItem) entity.LineItem {
	product, matched := c.matcher.Match(raw.Name)

	category := catalog.DefaultCategory
	productID := entity.ManualProductID
	if matched {
		category = product.Category
		productID = product.ID
	}

	price := decimal.Zero
	switch {
	case raw.Price.IsPositive():
		price = raw.Price
	case matched:
		price = product.Price
	}

	quantity := raw.Quantity
	if !quantity.IsPositive() {
		quantity = decimal.NewFromInt(1)
	}

	unit := strings.TrimSpace(raw.Unit)
	if unit == "" && matched {
		unit = product.Unit
	}
	if unit == "" {
		unit = entity.DefaultUnit
	}

	return entity.LineItem{
		ProductID:    productID,
		Name:         strings.TrimSpace(raw.Name),
		Quantity:     quantity,
		Unit:         unit,
		PricePerUnit: price,
		GSTRate:      c.taxes.Rate(category),
	}
}
