// Package server accepts client connections and runs the line protocol:
// one goroutine per connection, one reply line per request line.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"backoffice/internal/audit"
	"backoffice/internal/auth"
	"backoffice/internal/catalog"
	"backoffice/internal/chat"
	"backoffice/internal/config"
	"backoffice/internal/directory"
	"backoffice/internal/models"
	"backoffice/internal/sales"
)

// SessionService is the slice of the session registry the dispatcher needs.
type SessionService interface {
	Create(username, employeeNumber, branchID, userType, connID string) (models.Session, error)
	Remove(connID string) (models.Session, bool)
	ByConn(connID string) (models.Session, bool)
	Snapshot() []models.Session
}

// ChatService is the slice of the matching engine the dispatcher needs.
type ChatService interface {
	RequestChat(username, branchID string) (*chat.Match, *models.ChatRequest, error)
	AcceptChatRequest(acceptor, requestID string) (*chat.Match, error)
	CancelChatRequest(username string) bool
	EndChat(chatID string) ([]chat.Match, error)
	AddMessage(chatID, sender, text string) error
	JoinChat(chatID, username, roleLabel string) error
	ReleaseUser(username string) []chat.Match
	Status(username string) models.UserChatStatus
	History(chatID string) []models.ChatMessage
	Chat(chatID string) (models.ChatSession, bool)
	UserChat(username string) (models.ChatSession, bool)
	WaitingForOthers(branchID string) []models.ChatRequest
}

// InventoryService is the slice of the inventory guard the dispatcher needs.
type InventoryService interface {
	Add(branchID, productID string, qty int) error
	Remove(branchID, productID string, qty int) error
	Sell(branchID, productID string, qty int) error
	Quantity(branchID, productID string) int
	TotalQuantity(productID string) int
}

// Store receives write-through persistence triggers. A nil Store disables
// persistence, which the tests use.
type Store interface {
	UpsertAccount(models.UserAccount) error
	DeleteAccount(username string) error
	UpsertProduct(models.Product) error
	UpsertCustomer(models.Customer) error
	UpsertEmployee(models.Employee) error
	DeleteEmployee(employeeNumber string) error
	UpsertStock(branchID, productID string, quantity int) error
	AppendSale(models.Sale) error
}

// Deps collects the collaborators the server dispatches into.
type Deps struct {
	Sessions  SessionService
	Chat      ChatService
	Inventory InventoryService
	Auth      *auth.Service
	Catalog   *catalog.Catalog
	Customers *directory.Customers
	Employees *directory.Employees
	Ledger    *sales.Ledger
	Store     Store
	Audit     *audit.Recorder
}

type Server struct {
	cfg  *config.Config
	deps Deps
	log  *zap.Logger

	// waiting-request replies are recomputed at most every interval,
	// clients poll this endpoint on a timer
	waiting *gocache.Cache

	mu    sync.Mutex
	conns map[string]net.Conn
}

func New(cfg *config.Config, deps Deps, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		deps:    deps,
		log:     log,
		waiting: gocache.New(500*time.Millisecond, time.Minute),
		conns:   make(map[string]net.Conn),
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeAll()
	}()

	var wg sync.WaitGroup
	for {
		raw, err := ln.Accept()
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		c := newConn(raw, s)
		s.track(c.id, raw)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.untrack(c.id)
			c.handle()
		}()
	}
}

func (s *Server) track(id string, raw net.Conn) {
	s.mu.Lock()
	s.conns[id] = raw
	s.mu.Unlock()
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, raw := range s.conns {
		_ = raw.Close()
	}
}
