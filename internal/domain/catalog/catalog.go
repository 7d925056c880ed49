// Package catalog holds the shop's product reference data, the GST table and
// the free-text product matcher.
package catalog

import (
	"fmt"
	"strings"
	"sync"
)

// Catalog is an ordered product list. Iteration order is insertion order and
// is significant for matching.
type Catalog struct {
	mu       sync.RWMutex
	products []Product
	taxes    *TaxTable
}

// New creates a catalog from products, validating each against the tax table
func New(products []Product, taxes *TaxTable) (*Catalog, error) {
	if taxes == nil {
		taxes = DefaultTaxTable()
	}
	if err := taxes.Validate(); err != nil {
		return nil, err
	}

	c := &Catalog{taxes: taxes}
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidProduct, p.ID)
		}
		seen[p.ID] = true
		c.products = append(c.products, p)
	}
	return c, nil
}

// Default returns the starter catalog with default GST slabs
func Default() *Catalog {
	c, err := New(DefaultProducts(), DefaultTaxTable())
	if err != nil {
		panic(fmt.Sprintf("default catalog invalid: %v", err))
	}
	return c
}

// Taxes returns the tax table backing this catalog
func (c *Catalog) Taxes() *TaxTable {
	return c.taxes
}

// List returns a snapshot of the products in catalog order
func (c *Catalog) List() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get looks up a product by id
func (c *Catalog) Get(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Upsert installs p as the effective record for its id. An existing entry keeps
// its position so match order is stable across edits.
func (c *Catalog) Upsert(p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.products {
		if c.products[i].ID == p.ID {
			c.products[i] = p
			return nil
		}
	}
	c.products = append(c.products, p)
	return nil
}

// Match resolves a free-text item name to a product. See Matcher.
func (c *Catalog) Match(name string) (Product, bool) {
	query := normalize(name)
	if query == "" {
		return Product{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.products {
		candidate := normalize(p.Name)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, query) || strings.Contains(query, candidate) {
			return p, true
		}
	}
	return Product{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
