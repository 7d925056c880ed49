package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxTable maps each tax category to its GST rate
type TaxTable struct {
	rates map[TaxCategory]decimal.Decimal
}

// NewTaxTable builds a validated table from the given rates
func NewTaxTable(rates map[TaxCategory]decimal.Decimal) (*TaxTable, error) {
	t := &TaxTable{rates: make(map[TaxCategory]decimal.Decimal, len(rates))}
	for c, r := range rates {
		t.rates[c] = r
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// DefaultTaxTable returns the GST slabs used by the shop out of the box
func DefaultTaxTable() *TaxTable {
	return &TaxTable{rates: map[TaxCategory]decimal.Decimal{
		CategoryFood:    decimal.RequireFromString("0.05"),
		CategoryGeneral: decimal.RequireFromString("0.18"),
		CategoryLuxury:  decimal.RequireFromString("0.28"),
	}}
}

// Validate requires a rate in [0,1) for every enumerated category
func (t *TaxTable) Validate() error {
	for _, c := range Categories() {
		r, ok := t.rates[c]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingTaxRate, c)
		}
		if r.IsNegative() || r.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %s=%s", ErrInvalidTaxRate, c, r)
		}
	}
	for c := range t.rates {
		if !c.IsValid() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidTaxRate, c)
		}
	}
	return nil
}

// Rate returns the rate for a category. A validated table always resolves
// enumerated categories; anything else falls back to the default category.
func (t *TaxTable) Rate(c TaxCategory) decimal.Decimal {
	if r, ok := t.rates[c]; ok {
		return r
	}
	return t.rates[DefaultCategory]
}

// Rates returns a copy of the category to rate mapping
func (t *TaxTable) Rates() map[TaxCategory]decimal.Decimal {
	out := make(map[TaxCategory]decimal.Decimal, len(t.rates))
	for c, r := range t.rates {
		out[c] = r
	}
	return out
}
