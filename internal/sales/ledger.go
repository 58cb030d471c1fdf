// Package sales keeps the record of completed sales. Recording happens
// after the stock decrement succeeded, so the ledger never contains a sale
// that did not happen.
package sales

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"backoffice/internal/models"
)

// FinalPrice computes the total charged for a sale after the customer
// type discount.
func FinalPrice(unitPrice float64, quantity int, ctype models.CustomerType) float64 {
	total := unitPrice * float64(quantity)
	return total * (1 - ctype.DiscountRate())
}

type Ledger struct {
	mu    sync.RWMutex
	sales []models.Sale
	now   func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Record appends a completed sale. A missing ID or timestamp is filled in.
func (l *Ledger) Record(s models.Sale) models.Sale {
	if s.ID == "" {
		s.ID = "SALE_" + uuid.NewString()
	}
	if s.SoldAt.IsZero() {
		s.SoldAt = l.now()
	}
	l.mu.Lock()
	l.sales = append(l.sales, s)
	l.mu.Unlock()
	return s
}

// List returns all sales in recording order.
func (l *Ledger) List() []models.Sale {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Sale, len(l.sales))
	copy(out, l.sales)
	return out
}

// ListByBranch returns the sales made at one branch, oldest first.
func (l *Ledger) ListByBranch(branchID string) []models.Sale {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Sale, 0)
	for _, s := range l.sales {
		if s.BranchID == branchID {
			out = append(out, s)
		}
	}
	return out
}

// ListByEmployee returns the sales closed by one employee, oldest first.
func (l *Ledger) ListByEmployee(employeeNumber string) []models.Sale {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Sale, 0)
	for _, s := range l.sales {
		if s.EmployeeNumber == employeeNumber {
			out = append(out, s)
		}
	}
	return out
}

// Revenue sums the final prices of all sales at one branch. An empty
// branch ID sums every branch.
func (l *Ledger) Revenue(branchID string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total float64
	for _, s := range l.sales {
		if branchID == "" || s.BranchID == branchID {
			total += s.FinalPrice
		}
	}
	return total
}

// Load restores sales from storage at startup, keeping time order.
func (l *Ledger) Load(sales []models.Sale) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sales = append(l.sales, sales...)
	sort.Slice(l.sales, func(i, j int) bool { return l.sales[i].SoldAt.Before(l.sales[j].SoldAt) })
}
