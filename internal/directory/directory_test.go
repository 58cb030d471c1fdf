package directory

import (
	"errors"
	"testing"

	"backoffice/internal/models"
)

func validCustomer() models.Customer {
	return models.Customer{
		IDNumber: "123456789",
		FullName: "Dana Levi",
		Phone:    "0541234567",
		Type:     models.CustomerNew,
	}
}

func TestCustomers(t *testing.T) {
	c := NewCustomers()

	t.Run("add and get", func(t *testing.T) {
		if err := c.Add(validCustomer()); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		got, err := c.Get("123456789")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.FullName != "Dana Levi" {
			t.Errorf("unexpected customer: %+v", got)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		if err := c.Add(validCustomer()); !errors.Is(err, models.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		bad := validCustomer()
		bad.IDNumber = "12AB"
		if err := c.Add(bad); !errors.Is(err, models.ErrProtocol) {
			t.Errorf("expected ErrProtocol for bad ID, got %v", err)
		}
		bad = validCustomer()
		bad.IDNumber = "987654321"
		bad.Type = "GOLD"
		if err := c.Add(bad); !errors.Is(err, models.ErrProtocol) {
			t.Errorf("expected ErrProtocol for bad type, got %v", err)
		}
	})

	t.Run("update keeps empty fields", func(t *testing.T) {
		if err := c.Update("123456789", "", "", models.CustomerVIP); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		got, _ := c.Get("123456789")
		if got.Type != models.CustomerVIP || got.FullName != "Dana Levi" {
			t.Errorf("unexpected customer after update: %+v", got)
		}
	})

	t.Run("update unknown", func(t *testing.T) {
		if err := c.Update("000000000", "x", "", ""); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list sorted", func(t *testing.T) {
		other := validCustomer()
		other.IDNumber = "111111111"
		if err := c.Add(other); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		list := c.List()
		if len(list) != 2 || list[0].IDNumber != "111111111" {
			t.Errorf("unexpected list: %+v", list)
		}
	})
}

func TestCustomerDiscounts(t *testing.T) {
	cases := []struct {
		ctype models.CustomerType
		want  float64
	}{
		{models.CustomerNew, 0},
		{models.CustomerReturning, 0.05},
		{models.CustomerVIP, 0.10},
	}
	for _, tc := range cases {
		if got := tc.ctype.DiscountRate(); got != tc.want {
			t.Errorf("%s: discount %v, want %v", tc.ctype, got, tc.want)
		}
	}
}

func validEmployee() models.Employee {
	return models.Employee{
		EmployeeNumber: "E100",
		FullName:       "Noa Katz",
		IDNumber:       "123456789",
		Phone:          "0529876543",
		BankAccount:    "12-345-67890",
		Role:           models.RoleSalesman,
		BranchID:       "B1",
	}
}

func TestEmployees(t *testing.T) {
	e := NewEmployees()

	t.Run("add activates", func(t *testing.T) {
		if err := e.Add(validEmployee()); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		got, err := e.Get("E100")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !got.Active {
			t.Error("new employee should be active")
		}
	})

	t.Run("duplicate number", func(t *testing.T) {
		if err := e.Add(validEmployee()); !errors.Is(err, models.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("bad role rejected", func(t *testing.T) {
		bad := validEmployee()
		bad.EmployeeNumber = "E101"
		bad.Role = "janitor"
		if err := e.Add(bad); !errors.Is(err, models.ErrProtocol) {
			t.Errorf("expected ErrProtocol, got %v", err)
		}
	})

	t.Run("update role and branch", func(t *testing.T) {
		if err := e.Update("E100", "", "", "", models.RoleManager, "B2"); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		got, _ := e.Get("E100")
		if got.Role != models.RoleManager || got.BranchID != "B2" || got.FullName != "Noa Katz" {
			t.Errorf("unexpected employee after update: %+v", got)
		}
	})

	t.Run("deactivate", func(t *testing.T) {
		if err := e.SetActive("E100", false); err != nil {
			t.Fatalf("SetActive failed: %v", err)
		}
		got, _ := e.Get("E100")
		if got.Active {
			t.Error("employee should be inactive")
		}
	})

	t.Run("list by branch", func(t *testing.T) {
		other := validEmployee()
		other.EmployeeNumber = "E050"
		other.BranchID = "B2"
		if err := e.Add(other); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		b2 := e.ListByBranch("B2")
		if len(b2) != 2 || b2[0].EmployeeNumber != "E050" {
			t.Errorf("unexpected branch list: %+v", b2)
		}
		if got := e.ListByBranch("B9"); len(got) != 0 {
			t.Errorf("empty branch should list nothing, got %+v", got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := e.Delete("E050"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := e.Get("E050"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := e.Delete("E050"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound on double delete, got %v", err)
		}
	})
}
