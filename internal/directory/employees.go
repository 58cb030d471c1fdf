package directory

import (
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"backoffice/internal/models"
)

// Employees is the roster of employees across all branches, keyed by
// employee number.
type Employees struct {
	mu       sync.RWMutex
	byNumber map[string]*models.Employee
	validate *validator.Validate
}

func NewEmployees() *Employees {
	return &Employees{
		byNumber: make(map[string]*models.Employee),
		validate: validator.New(),
	}
}

func (e *Employees) Add(emp models.Employee) error {
	emp.EmployeeNumber = strings.TrimSpace(emp.EmployeeNumber)
	emp.FullName = strings.TrimSpace(emp.FullName)
	emp.IDNumber = strings.TrimSpace(emp.IDNumber)
	emp.Phone = strings.TrimSpace(emp.Phone)
	emp.BankAccount = strings.TrimSpace(emp.BankAccount)
	emp.BranchID = strings.TrimSpace(emp.BranchID)
	emp.Role = strings.ToLower(strings.TrimSpace(emp.Role))
	emp.Active = true
	if err := e.validate.Struct(emp); err != nil {
		return models.ErrProtocol
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.byNumber[emp.EmployeeNumber]; ok {
		return models.ErrDuplicate
	}
	e.byNumber[emp.EmployeeNumber] = &emp
	return nil
}

func (e *Employees) Get(number string) (models.Employee, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	emp, ok := e.byNumber[strings.TrimSpace(number)]
	if !ok {
		return models.Employee{}, models.ErrNotFound
	}
	return *emp, nil
}

// Update replaces the mutable fields of an employee. Empty fields keep
// their current value. The employee number itself never changes.
func (e *Employees) Update(number, fullName, phone, bankAccount, role, branchID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	emp, ok := e.byNumber[strings.TrimSpace(number)]
	if !ok {
		return models.ErrNotFound
	}

	next := *emp
	if fullName = strings.TrimSpace(fullName); fullName != "" {
		next.FullName = fullName
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		next.Phone = phone
	}
	if bankAccount = strings.TrimSpace(bankAccount); bankAccount != "" {
		next.BankAccount = bankAccount
	}
	if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
		next.Role = role
	}
	if branchID = strings.TrimSpace(branchID); branchID != "" {
		next.BranchID = branchID
	}
	if err := e.validate.Struct(next); err != nil {
		return models.ErrProtocol
	}
	*emp = next
	return nil
}

func (e *Employees) SetActive(number string, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	emp, ok := e.byNumber[strings.TrimSpace(number)]
	if !ok {
		return models.ErrNotFound
	}
	emp.Active = active
	return nil
}

func (e *Employees) Delete(number string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	number = strings.TrimSpace(number)
	if _, ok := e.byNumber[number]; !ok {
		return models.ErrNotFound
	}
	delete(e.byNumber, number)
	return nil
}

// List returns every employee sorted by employee number.
func (e *Employees) List() []models.Employee {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.Employee, 0, len(e.byNumber))
	for _, emp := range e.byNumber {
		out = append(out, *emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeNumber < out[j].EmployeeNumber })
	return out
}

// ListByBranch returns the employees assigned to one branch, sorted by
// employee number.
func (e *Employees) ListByBranch(branchID string) []models.Employee {
	branchID = strings.TrimSpace(branchID)
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.Employee, 0)
	for _, emp := range e.byNumber {
		if emp.BranchID == branchID {
			out = append(out, *emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeNumber < out[j].EmployeeNumber })
	return out
}

// Load inserts an employee without validation, used when restoring state
// from storage at startup.
func (e *Employees) Load(emp models.Employee) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byNumber[emp.EmployeeNumber] = &emp
}
