package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidProduct is returned when a product fails validation
	ErrInvalidProduct = errors.New("invalid product")

	// ErrMissingTaxRate is returned when a tax category has no rate
	ErrMissingTaxRate = errors.New("missing tax rate")

	// ErrInvalidTaxRate is returned when a rate lies outside [0,1)
	ErrInvalidTaxRate = errors.New("invalid tax rate")
)

// TaxCategory classifies a product for tax purposes
type TaxCategory string

const (
	CategoryFood    TaxCategory = "food_items"
	CategoryGeneral TaxCategory = "general_goods"
	CategoryLuxury  TaxCategory = "luxury_items"
)

// DefaultCategory applies to items that match no catalog entry
const DefaultCategory = CategoryGeneral

var validCategories = map[TaxCategory]bool{
	CategoryFood:    true,
	CategoryGeneral: true,
	CategoryLuxury:  true,
}

// Categories returns the fixed category set in a stable order
func Categories() []TaxCategory {
	return []TaxCategory{CategoryFood, CategoryGeneral, CategoryLuxury}
}

// IsValid returns true if the category is one of the enumerated set
func (c TaxCategory) IsValid() bool {
	return validCategories[c]
}

// String returns the string representation of the category
func (c TaxCategory) String() string {
	return string(c)
}

// Product is catalog reference data. Values are replaced, never mutated.
type Product struct {
	ID       string          `json:"id" mapstructure:"id"`
	Name     string          `json:"name" mapstructure:"name"`
	Price    decimal.Decimal `json:"price" mapstructure:"price"`
	Unit     string          `json:"unit" mapstructure:"unit"`
	Category TaxCategory     `json:"category" mapstructure:"category"`
}

// Validate checks the product's own fields
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required (id %s)", ErrInvalidProduct, p.ID)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: negative price %s (id %s)", ErrInvalidProduct, p.Price, p.ID)
	}
	if !p.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q (id %s)", ErrInvalidProduct, p.Category, p.ID)
	}
	return nil
}

// DefaultProducts returns the starter catalog for a neighbourhood kirana shop
func DefaultProducts() []Product {
	return []Product{
		{ID: "1", Name: "Basmati Rice", Price: decimal.NewFromInt(120), Unit: "kg", Category: CategoryFood},
		{ID: "2", Name: "Sugar", Price: decimal.NewFromInt(42), Unit: "kg", Category: CategoryFood},
		{ID: "3", Name: "Sunflower Oil", Price: decimal.NewFromInt(160), Unit: "liter", Category: CategoryFood},
		{ID: "4", Name: "Toor Dal", Price: decimal.NewFromInt(140), Unit: "kg", Category: CategoryFood},
		{ID: "5", Name: "Wheat Flour", Price: decimal.NewFromInt(45), Unit: "kg", Category: CategoryFood},
		{ID: "6", Name: "Bath Soap", Price: decimal.NewFromInt(35), Unit: "piece", Category: CategoryGeneral},
		{ID: "7", Name: "Detergent Powder", Price: decimal.NewFromInt(90), Unit: "kg", Category: CategoryGeneral},
		{ID: "8", Name: "Shampoo Bottle", Price: decimal.NewFromInt(180), Unit: "bottle", Category: CategoryGeneral},
		{ID: "9", Name: "Chocolate Box", Price: decimal.NewFromInt(450), Unit: "box", Category: CategoryLuxury},
		{ID: "10", Name: "Perfume", Price: decimal.NewFromInt(850), Unit: "bottle", Category: CategoryLuxury},
	}
}
