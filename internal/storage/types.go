package storage

import (
	"encoding"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type DBAccount struct {
	Username       string `msgpack:"username"`
	PasswordHash   string `msgpack:"passwordHash"`
	EmployeeNumber string `msgpack:"employeeNumber"`
	UserType       string `msgpack:"userType"`
	BranchID       string `msgpack:"branchId"`
	Active         bool   `msgpack:"active"`
}

func (a *DBAccount) Key() []byte {
	return []byte(a.Username)
}

func (a *DBAccount) MarshalBinary() (data []byte, err error) {
	type alias DBAccount
	return msgpack.Marshal((*alias)(a))
}

func (a *DBAccount) UnmarshalBinary(data []byte) error {
	type alias DBAccount
	return msgpack.Unmarshal(data, (*alias)(a))
}

type DBProduct struct {
	ID       string  `msgpack:"id"`
	Name     string  `msgpack:"name"`
	Category string  `msgpack:"category"`
	Price    float64 `msgpack:"price"`
	Active   bool    `msgpack:"active"`
}

func (p *DBProduct) Key() []byte {
	return []byte(p.ID)
}

func (p *DBProduct) MarshalBinary() (data []byte, err error) {
	type alias DBProduct
	return msgpack.Marshal((*alias)(p))
}

func (p *DBProduct) UnmarshalBinary(data []byte) error {
	type alias DBProduct
	return msgpack.Unmarshal(data, (*alias)(p))
}

type DBCustomer struct {
	IDNumber string `msgpack:"idNumber"`
	FullName string `msgpack:"fullName"`
	Phone    string `msgpack:"phone"`
	Type     string `msgpack:"type"`
}

func (c *DBCustomer) Key() []byte {
	return []byte(c.IDNumber)
}

func (c *DBCustomer) MarshalBinary() (data []byte, err error) {
	type alias DBCustomer
	return msgpack.Marshal((*alias)(c))
}

func (c *DBCustomer) UnmarshalBinary(data []byte) error {
	type alias DBCustomer
	return msgpack.Unmarshal(data, (*alias)(c))
}

type DBEmployee struct {
	EmployeeNumber string `msgpack:"employeeNumber"`
	FullName       string `msgpack:"fullName"`
	IDNumber       string `msgpack:"idNumber"`
	Phone          string `msgpack:"phone"`
	BankAccount    string `msgpack:"bankAccount"`
	Role           string `msgpack:"role"`
	BranchID       string `msgpack:"branchId"`
	Active         bool   `msgpack:"active"`
}

func (e *DBEmployee) Key() []byte {
	return []byte(e.EmployeeNumber)
}

func (e *DBEmployee) MarshalBinary() (data []byte, err error) {
	type alias DBEmployee
	return msgpack.Marshal((*alias)(e))
}

func (e *DBEmployee) UnmarshalBinary(data []byte) error {
	type alias DBEmployee
	return msgpack.Unmarshal(data, (*alias)(e))
}

// DBStock holds one branch's quantity of one product. Its key joins both
// IDs so a single flat bucket covers every branch.
type DBStock struct {
	BranchID  string `msgpack:"branchId"`
	ProductID string `msgpack:"productId"`
	Quantity  int    `msgpack:"quantity"`
}

func (s *DBStock) Key() []byte {
	return []byte(s.BranchID + "/" + s.ProductID)
}

func (s *DBStock) MarshalBinary() (data []byte, err error) {
	type alias DBStock
	return msgpack.Marshal((*alias)(s))
}

func (s *DBStock) UnmarshalBinary(data []byte) error {
	type alias DBStock
	return msgpack.Unmarshal(data, (*alias)(s))
}

type DBSale struct {
	ID             string  `msgpack:"id"`
	ProductID      string  `msgpack:"productId"`
	BranchID       string  `msgpack:"branchId"`
	EmployeeNumber string  `msgpack:"employeeNumber"`
	CustomerID     string  `msgpack:"customerId"`
	Quantity       int     `msgpack:"quantity"`
	UnitPrice      float64 `msgpack:"unitPrice"`
	FinalPrice     float64 `msgpack:"finalPrice"`
	SoldAt         int64   `msgpack:"soldAt"`
}

func (s *DBSale) Key() []byte {
	return []byte(s.ID)
}

func (s *DBSale) MarshalBinary() (data []byte, err error) {
	type alias DBSale
	return msgpack.Marshal((*alias)(s))
}

func (s *DBSale) UnmarshalBinary(data []byte) error {
	type alias DBSale
	return msgpack.Unmarshal(data, (*alias)(s))
}
