// Package inventory is the concurrency guard around per-branch stock.
// The check-and-decrement in Remove and Sell is atomic per branch, so
// concurrent sells can never drive a quantity negative.
package inventory

import (
	"fmt"
	"sync"

	"backoffice/internal/models"
)

// ProductDirectory is the catalog view the guard needs: Sell refuses
// inactive products.
type ProductDirectory interface {
	IsActive(productID string) bool
	Get(productID string) (models.Product, error)
}

// branchStock is one branch's stock map behind its own mutex. Lock
// granularity is per branch: sells in different branches never contend.
type branchStock struct {
	mu    sync.Mutex
	stock map[string]int
}

type Guard struct {
	mu       sync.RWMutex
	branches map[string]*branchStock
	catalog  ProductDirectory
}

func NewGuard(catalog ProductDirectory) *Guard {
	return &Guard{
		branches: make(map[string]*branchStock),
		catalog:  catalog,
	}
}

func (g *Guard) branch(branchID string) *branchStock {
	g.mu.RLock()
	b, ok := g.branches[branchID]
	g.mu.RUnlock()
	if ok {
		return b
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok = g.branches[branchID]; ok {
		return b
	}
	b = &branchStock{stock: make(map[string]int)}
	g.branches[branchID] = b
	return b
}

// Add increments the branch's stock of productID, initializing it if
// absent. The product must exist in the catalog.
func (g *Guard) Add(branchID, productID string, qty int) error {
	if qty <= 0 {
		return models.ErrInvalidQuantity
	}
	if _, err := g.catalog.Get(productID); err != nil {
		return err
	}

	b := g.branch(branchID)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stock[productID] += qty
	return nil
}

// Remove decrements stock without the active-product check, for stock
// corrections and transfers.
func (g *Guard) Remove(branchID, productID string, qty int) error {
	if qty <= 0 {
		return models.ErrInvalidQuantity
	}
	return g.decrement(branchID, productID, qty)
}

// Sell decrements stock for a sale. Inactive products cannot be sold
// even when stock remains.
func (g *Guard) Sell(branchID, productID string, qty int) error {
	if qty <= 0 {
		return models.ErrInvalidQuantity
	}
	if !g.catalog.IsActive(productID) {
		return fmt.Errorf("product %s: %w", productID, models.ErrInactiveProduct)
	}
	return g.decrement(branchID, productID, qty)
}

func (g *Guard) decrement(branchID, productID string, qty int) error {
	b := g.branch(branchID)
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.stock[productID]
	if current < qty {
		return fmt.Errorf("product %s in branch %s: %w", productID, branchID, models.ErrInsufficientStock)
	}
	if current == qty {
		delete(b.stock, productID)
	} else {
		b.stock[productID] = current - qty
	}
	return nil
}

// Quantity returns the stock of productID in one branch, 0 if unknown.
func (g *Guard) Quantity(branchID, productID string) int {
	b := g.branch(branchID)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stock[productID]
}

// TotalQuantity sums productID stock across all branches.
func (g *Guard) TotalQuantity(productID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	total := 0
	for _, b := range g.branches {
		b.mu.Lock()
		total += b.stock[productID]
		b.mu.Unlock()
	}
	return total
}

// Snapshot returns a copy of every branch's stock, for persistence.
func (g *Guard) Snapshot() map[string]map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]map[string]int, len(g.branches))
	for branchID, b := range g.branches {
		b.mu.Lock()
		m := make(map[string]int, len(b.stock))
		for pid, q := range b.stock {
			m[pid] = q
		}
		b.mu.Unlock()
		out[branchID] = m
	}
	return out
}

// Load sets a branch's stock of productID as stored, skipping the
// positive-quantity rule.
func (g *Guard) Load(branchID, productID string, qty int) {
	if qty <= 0 {
		return
	}
	b := g.branch(branchID)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stock[productID] = qty
}
