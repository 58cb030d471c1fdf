// Package directory keeps the people records of the back office: the
// customer book shared by all branches and the per-branch employee roster.
package directory

import (
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"backoffice/internal/models"
)

// Customers is the branch-wide customer book. Customers are keyed by
// national ID number and visible from every branch.
type Customers struct {
	mu       sync.RWMutex
	byID     map[string]*models.Customer
	validate *validator.Validate
}

func NewCustomers() *Customers {
	return &Customers{
		byID:     make(map[string]*models.Customer),
		validate: validator.New(),
	}
}

func (c *Customers) Add(cust models.Customer) error {
	cust.IDNumber = strings.TrimSpace(cust.IDNumber)
	cust.FullName = strings.TrimSpace(cust.FullName)
	cust.Phone = strings.TrimSpace(cust.Phone)
	if err := c.validate.Struct(cust); err != nil {
		return models.ErrProtocol
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[cust.IDNumber]; ok {
		return models.ErrDuplicate
	}
	c.byID[cust.IDNumber] = &cust
	return nil
}

func (c *Customers) Get(idNumber string) (models.Customer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cust, ok := c.byID[strings.TrimSpace(idNumber)]
	if !ok {
		return models.Customer{}, models.ErrNotFound
	}
	return *cust, nil
}

// Update replaces the mutable fields of an existing customer. Empty fields
// keep their current value.
func (c *Customers) Update(idNumber, fullName, phone string, ctype models.CustomerType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cust, ok := c.byID[strings.TrimSpace(idNumber)]
	if !ok {
		return models.ErrNotFound
	}

	next := *cust
	if fullName = strings.TrimSpace(fullName); fullName != "" {
		next.FullName = fullName
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		next.Phone = phone
	}
	if ctype != "" {
		next.Type = ctype
	}
	if err := c.validate.Struct(next); err != nil {
		return models.ErrProtocol
	}
	*cust = next
	return nil
}

// List returns every customer sorted by ID number.
func (c *Customers) List() []models.Customer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Customer, 0, len(c.byID))
	for _, cust := range c.byID {
		out = append(out, *cust)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IDNumber < out[j].IDNumber })
	return out
}

// Load inserts a customer without validation, used when restoring state
// from storage at startup.
func (c *Customers) Load(cust models.Customer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[cust.IDNumber] = &cust
}
