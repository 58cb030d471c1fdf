// Package storage persists the back office state in an embedded bbolt
// database. In-memory services own the live state; storage is written
// through on every mutation and read back once at startup.
package storage

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"backoffice/internal/models"
)

var (
	bucketUsers     = []byte("users")
	bucketProducts  = []byte("products")
	bucketCustomers = []byte("customers")
	bucketEmployees = []byte("employees")
	bucketInventory = []byte("inventory")
	bucketSales     = []byte("sales")
)

type BboltStorage struct {
	db *bbolt.DB
}

func NewBboltStorage(path string) (*BboltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{
			bucketUsers, bucketProducts, bucketCustomers,
			bucketEmployees, bucketInventory, bucketSales,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStorage{db: db}, nil
}

func (s *BboltStorage) Close() error {
	return s.db.Close()
}

func (s *BboltStorage) put(bucket []byte, item Storeable) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := item.MarshalBinary()
		if err != nil {
			return err
		}
		return tx.Bucket(bucket).Put(item.Key(), data)
	})
}

func (s *BboltStorage) delete(bucket, key []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	})
}

// UpsertAccount stores a new or updated login account.
func (s *BboltStorage) UpsertAccount(acc models.UserAccount) error {
	return s.put(bucketUsers, &DBAccount{
		Username:       acc.Username,
		PasswordHash:   acc.PasswordHash,
		EmployeeNumber: acc.EmployeeNumber,
		UserType:       acc.UserType,
		BranchID:       acc.BranchID,
		Active:         acc.Active,
	})
}

func (s *BboltStorage) DeleteAccount(username string) error {
	return s.delete(bucketUsers, []byte(username))
}

// ListAccounts returns every login account stored in the database.
func (s *BboltStorage) ListAccounts() ([]models.UserAccount, error) {
	var accounts []models.UserAccount
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(k, v []byte) error {
			var acc DBAccount
			if err := acc.UnmarshalBinary(v); err != nil {
				return err
			}
			accounts = append(accounts, models.UserAccount{
				Username:       acc.Username,
				PasswordHash:   acc.PasswordHash,
				EmployeeNumber: acc.EmployeeNumber,
				UserType:       acc.UserType,
				BranchID:       acc.BranchID,
				Active:         acc.Active,
			})
			return nil
		})
	})
	return accounts, err
}

func (s *BboltStorage) UpsertProduct(p models.Product) error {
	return s.put(bucketProducts, &DBProduct{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price,
		Active:   p.Active,
	})
}

func (s *BboltStorage) ListProducts() ([]models.Product, error) {
	var products []models.Product
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProducts).ForEach(func(k, v []byte) error {
			var p DBProduct
			if err := p.UnmarshalBinary(v); err != nil {
				return err
			}
			products = append(products, models.Product{
				ID:       p.ID,
				Name:     p.Name,
				Category: p.Category,
				Price:    p.Price,
				Active:   p.Active,
			})
			return nil
		})
	})
	return products, err
}

func (s *BboltStorage) UpsertCustomer(c models.Customer) error {
	return s.put(bucketCustomers, &DBCustomer{
		IDNumber: c.IDNumber,
		FullName: c.FullName,
		Phone:    c.Phone,
		Type:     string(c.Type),
	})
}

func (s *BboltStorage) ListCustomers() ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCustomers).ForEach(func(k, v []byte) error {
			var c DBCustomer
			if err := c.UnmarshalBinary(v); err != nil {
				return err
			}
			customers = append(customers, models.Customer{
				IDNumber: c.IDNumber,
				FullName: c.FullName,
				Phone:    c.Phone,
				Type:     models.CustomerType(c.Type),
			})
			return nil
		})
	})
	return customers, err
}

func (s *BboltStorage) UpsertEmployee(e models.Employee) error {
	return s.put(bucketEmployees, &DBEmployee{
		EmployeeNumber: e.EmployeeNumber,
		FullName:       e.FullName,
		IDNumber:       e.IDNumber,
		Phone:          e.Phone,
		BankAccount:    e.BankAccount,
		Role:           e.Role,
		BranchID:       e.BranchID,
		Active:         e.Active,
	})
}

func (s *BboltStorage) DeleteEmployee(employeeNumber string) error {
	return s.delete(bucketEmployees, []byte(employeeNumber))
}

func (s *BboltStorage) ListEmployees() ([]models.Employee, error) {
	var employees []models.Employee
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmployees).ForEach(func(k, v []byte) error {
			var e DBEmployee
			if err := e.UnmarshalBinary(v); err != nil {
				return err
			}
			employees = append(employees, models.Employee{
				EmployeeNumber: e.EmployeeNumber,
				FullName:       e.FullName,
				IDNumber:       e.IDNumber,
				Phone:          e.Phone,
				BankAccount:    e.BankAccount,
				Role:           e.Role,
				BranchID:       e.BranchID,
				Active:         e.Active,
			})
			return nil
		})
	})
	return employees, err
}

// UpsertStock stores one branch's quantity of one product. A zero
// quantity removes the record.
func (s *BboltStorage) UpsertStock(branchID, productID string, quantity int) error {
	stock := &DBStock{BranchID: branchID, ProductID: productID, Quantity: quantity}
	if quantity == 0 {
		return s.delete(bucketInventory, stock.Key())
	}
	return s.put(bucketInventory, stock)
}

// ListStock returns branch to product to quantity for the whole chain.
func (s *BboltStorage) ListStock() (map[string]map[string]int, error) {
	stock := make(map[string]map[string]int)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketInventory).ForEach(func(k, v []byte) error {
			var rec DBStock
			if err := rec.UnmarshalBinary(v); err != nil {
				return err
			}
			branch, ok := stock[rec.BranchID]
			if !ok {
				branch = make(map[string]int)
				stock[rec.BranchID] = branch
			}
			branch[rec.ProductID] = rec.Quantity
			return nil
		})
	})
	return stock, err
}

func (s *BboltStorage) AppendSale(sale models.Sale) error {
	return s.put(bucketSales, &DBSale{
		ID:             sale.ID,
		ProductID:      sale.ProductID,
		BranchID:       sale.BranchID,
		EmployeeNumber: sale.EmployeeNumber,
		CustomerID:     sale.CustomerID,
		Quantity:       sale.Quantity,
		UnitPrice:      sale.UnitPrice,
		FinalPrice:     sale.FinalPrice,
		SoldAt:         sale.SoldAt.UnixMilli(),
	})
}

func (s *BboltStorage) ListSales() ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSales).ForEach(func(k, v []byte) error {
			var rec DBSale
			if err := rec.UnmarshalBinary(v); err != nil {
				return err
			}
			sales = append(sales, models.Sale{
				ID:             rec.ID,
				ProductID:      rec.ProductID,
				BranchID:       rec.BranchID,
				EmployeeNumber: rec.EmployeeNumber,
				CustomerID:     rec.CustomerID,
				Quantity:       rec.Quantity,
				UnitPrice:      rec.UnitPrice,
				FinalPrice:     rec.FinalPrice,
				SoldAt:         time.UnixMilli(rec.SoldAt),
			})
			return nil
		})
	})
	return sales, err
}
