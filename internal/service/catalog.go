package service

import (
	"slices"
	"strings"

	"github.com/benx421/subscription-checkout/internal/models"
)

// Catalog resolves product ids to the plans they sell
type Catalog struct {
	products map[string]models.Product
}

// NewCatalog indexes products by id
func NewCatalog(products []models.Product) *Catalog {
	c := &Catalog{products: make(map[string]models.Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// Lookup returns the product with the given id
func (c *Catalog) Lookup(id string) (models.Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

// Products lists the catalog ordered by id
func (c *Catalog) Products() []models.Product {
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b models.Product) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
