// Package catalog is the shared product catalog. Branch inventories
// reference products by ID; the catalog owns name, category, price and
// the active flag.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"backoffice/internal/models"
)

type Catalog struct {
	mu       sync.RWMutex
	products map[string]*models.Product
}

func New() *Catalog {
	return &Catalog{products: make(map[string]*models.Product)}
}

func (c *Catalog) Add(id, name, category string, price float64) error {
	if id == "" || name == "" || category == "" {
		return fmt.Errorf("%w: product id, name and category are required", models.ErrProtocol)
	}
	if price < 0 {
		return fmt.Errorf("%w: price cannot be negative", models.ErrProtocol)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[id]; ok {
		return fmt.Errorf("product %s %w", id, models.ErrDuplicate)
	}
	c.products[id] = &models.Product{
		ID:       id,
		Name:     name,
		Category: category,
		Price:    price,
		Active:   true,
	}
	return nil
}

func (c *Catalog) Get(id string) (models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}
	return *p, nil
}

// IsActive reports whether the product exists and may be sold.
func (c *Catalog) IsActive(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	return ok && p.Active
}

func (c *Catalog) SetActive(id string, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}
	p.Active = active
	return nil
}

// List returns a snapshot ordered by product ID.
func (c *Catalog) List() []models.Product {
	c.mu.RLock()
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, *p)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Load inserts a product as stored, used when loading persisted state.
func (c *Catalog) Load(p models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = &p
}
