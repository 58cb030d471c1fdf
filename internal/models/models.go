package models

import "time"

// Role names as stored on user accounts. Permission checks are pure
// functions of these strings (see internal/permissions).
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleSalesman = "salesman"
	RoleCashier  = "cashier"
)

// Session is the live, authenticated identity bound to one connection.
// At most one Session exists per username at any instant.
type Session struct {
	Username       string
	EmployeeNumber string
	BranchID       string
	UserType       string // role string, see Role* constants
	ConnID         string
	LoginTime      time.Time
}

// UserAccount is a login account. Accounts are persisted; Sessions are not.
type UserAccount struct {
	Username       string
	PasswordHash   string
	EmployeeNumber string
	UserType       string
	BranchID       string
	Active         bool
}

type ChatRequestStatus string

const (
	RequestPending   ChatRequestStatus = "PENDING"
	RequestMatched   ChatRequestStatus = "MATCHED"
	RequestCancelled ChatRequestStatus = "CANCELLED"
)

// ChatRequest is a user's outstanding ask to be paired with a helper from
// another branch. Never reused after leaving the Pending state.
type ChatRequest struct {
	ID          string
	Requester   string
	BranchID    string
	RequestedAt time.Time
	Status      ChatRequestStatus
}

type ChatSessionStatus string

const (
	ChatActive ChatSessionStatus = "ACTIVE"
	ChatEnded  ChatSessionStatus = "ENDED"
)

// ChatSession is a paired conversation. Participants may grow when a
// manager joins. Ended sessions are retained for audit, never deleted.
type ChatSession struct {
	ID           string
	Participants []string
	StartedAt    time.Time
	Status       ChatSessionStatus
}

// HasParticipant reports whether username takes part in the chat.
func (cs *ChatSession) HasParticipant(username string) bool {
	for _, p := range cs.Participants {
		if p == username {
			return true
		}
	}
	return false
}

type MessageType string

const (
	MessageText   MessageType = "TEXT"
	MessageSystem MessageType = "SYSTEM"
)

// ChatMessage is one entry in a chat's message log. The JSON field names
// are part of the wire protocol (GET_CHAT_MESSAGES).
type ChatMessage struct {
	ChatID    string      `json:"chatId"`
	Sender    string      `json:"senderUsername"`
	Message   string      `json:"message"`
	Type      MessageType `json:"messageType"`
	Timestamp int64       `json:"timestamp"`
}

// UserChatStatus is derived, never stored: InChat if the user participates
// in an active chat, InQueue if they have a pending request, else Available.
type UserChatStatus string

const (
	StatusAvailable UserChatStatus = "AVAILABLE"
	StatusInQueue   UserChatStatus = "IN_QUEUE"
	StatusInChat    UserChatStatus = "IN_CHAT"
)

// Product is a catalog entry. Inactive products cannot be sold.
type Product struct {
	ID       string
	Name     string
	Category string
	Price    float64
	Active   bool
}

type CustomerType string

const (
	CustomerNew       CustomerType = "NEW"
	CustomerReturning CustomerType = "RETURNING"
	CustomerVIP       CustomerType = "VIP"
)

// DiscountRate returns the fraction taken off the sale price for this
// customer type.
func (t CustomerType) DiscountRate() float64 {
	switch t {
	case CustomerReturning:
		return 0.05
	case CustomerVIP:
		return 0.10
	default:
		return 0
	}
}

type Customer struct {
	IDNumber string       `validate:"required,numeric,len=9"`
	FullName string       `validate:"required,min=2"`
	Phone    string       `validate:"required,numeric,min=9,max=10"`
	Type     CustomerType `validate:"required,oneof=NEW RETURNING VIP"`
}

type Employee struct {
	EmployeeNumber string `validate:"required"`
	FullName       string `validate:"required,min=2"`
	IDNumber       string `validate:"required,numeric,len=9"`
	Phone          string `validate:"required,numeric,min=9,max=10"`
	BankAccount    string `validate:"required"`
	Role           string `validate:"required,oneof=admin manager salesman cashier"`
	BranchID       string `validate:"required"`
	Active         bool
}

// Sale records one completed sale. Recording is a best-effort follow-up to
// the atomic stock decrement, see internal/inventory.
type Sale struct {
	ID             string
	ProductID      string
	BranchID       string
	EmployeeNumber string
	CustomerID     string
	Quantity       int
	UnitPrice      float64
	FinalPrice     float64
	SoldAt         time.Time
}
