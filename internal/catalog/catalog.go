// Package catalog provides the static, read-only product catalog. Products
// are loaded once at startup from an embedded fixture; there is no mutation
// API.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

//go:embed products.json
var productsJSON []byte

// Catalog is an in-memory product index with lookup by ID.
type Catalog struct {
	products []domain.Product
	byID     map[int64]int
}

// Load parses the embedded product fixture into a catalog.
func Load() (*Catalog, error) {
	return Parse(productsJSON)
}

// Parse builds a catalog from raw JSON. Duplicate product IDs are rejected.
func Parse(data []byte) (*Catalog, error) {
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse product catalog: %w", err)
	}

	byID := make(map[int64]int, len(products))
	for i, p := range products {
		if _, ok := byID[p.ID]; ok {
			return nil, fmt.Errorf("parse product catalog: duplicate product id %d", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("parse product catalog: product %d has negative price", p.ID)
		}
		byID[p.ID] = i
	}

	return &Catalog{products: products, byID: byID}, nil
}

// ByID returns the product with the given ID.
func (c *Catalog) ByID(id int64) (domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", fmt.Sprintf("%d", id))
	}
	return c.products[i], nil
}

// List returns all products in fixture order.
func (c *Catalog) List() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Search returns products whose name or description contains the query,
// case-insensitively. An empty query matches everything.
func (c *Catalog) Search(query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.List()
	}

	matched := make([]domain.Product, 0)
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Similar returns products sharing the given product's category, excluding
// the product itself.
func (c *Catalog) Similar(id int64) ([]domain.Product, error) {
	p, err := c.ByID(id)
	if err != nil {
		return nil, err
	}

	similar := make([]domain.Product, 0)
	for _, other := range c.products {
		if other.Category == p.Category && other.ID != p.ID {
			similar = append(similar, other)
		}
	}
	return similar, nil
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	return len(c.products)
}
