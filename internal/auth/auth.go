// Package auth manages login accounts: bcrypt password verification,
// password policy, and brute-force throttling of failed attempts.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/models"

	"github.com/c-pro/geche"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type Service struct {
	accounts    *geche.Locker[string, *models.UserAccount]
	failed      geche.Geche[string, int]
	maxAttempts int
}

// NewService creates an auth service. Failed-attempt counters expire
// after backoff, so a throttled user regains access by waiting it out.
func NewService(ctx context.Context, maxAttempts int, backoff time.Duration) *Service {
	return &Service{
		accounts:    geche.NewLocker[string, *models.UserAccount](geche.NewMapCache[string, *models.UserAccount]()),
		failed:      geche.NewMapTTLCache[string, int](ctx, backoff, time.Second),
		maxAttempts: maxAttempts,
	}
}

// Normalize folds a username to its canonical form. Accounts, sessions
// and chat state all key on the normalized name.
func Normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Authenticate verifies credentials and returns the account. Inactive
// accounts fail the same way as unknown ones.
func (s *Service) Authenticate(username, password string) (models.UserAccount, error) {
	username = Normalize(username)

	if n, err := s.failed.Get(username); err == nil && n >= s.maxAttempts {
		return models.UserAccount{}, fmt.Errorf("%w: too many failed attempts", models.ErrInvalidCredentials)
	}

	tx := s.accounts.Lock()
	defer tx.Unlock()

	acc, err := tx.Get(username)
	if err != nil || !acc.Active {
		s.recordFailure(username)
		return models.UserAccount{}, models.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		s.recordFailure(username)
		return models.UserAccount{}, models.ErrInvalidCredentials
	}

	_ = s.failed.Del(username)
	return *acc, nil
}

func (s *Service) recordFailure(username string) {
	n := 0
	if v, err := s.failed.Get(username); err == nil {
		n = v
	}
	s.failed.Set(username, n+1)
}

// CreateUser registers a new account with a freshly hashed password.
func (s *Service) CreateUser(username, password, employeeNumber, userType, branchID string) error {
	username = Normalize(username)
	if err := validatePassword(password); err != nil {
		return err
	}
	switch userType {
	case models.RoleAdmin, models.RoleManager, models.RoleSalesman, models.RoleCashier:
	default:
		return fmt.Errorf("%w: user type must be one of admin, manager, salesman, cashier", models.ErrProtocol)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	tx := s.accounts.Lock()
	defer tx.Unlock()
	if _, err := tx.Get(username); err == nil {
		return fmt.Errorf("user %s %w", username, models.ErrDuplicate)
	}
	tx.Set(username, &models.UserAccount{
		Username:       username,
		PasswordHash:   string(hash),
		EmployeeNumber: employeeNumber,
		UserType:       userType,
		BranchID:       branchID,
		Active:         true,
	})
	return nil
}

// UpdateUser changes password and/or branch. Nil-equivalent (empty)
// fields are left untouched.
func (s *Service) UpdateUser(username, newPassword, newBranchID string) error {
	username = Normalize(username)

	tx := s.accounts.Lock()
	defer tx.Unlock()
	acc, err := tx.Get(username)
	if err != nil {
		return fmt.Errorf("user %s: %w", username, models.ErrNotFound)
	}
	if newPassword != "" {
		if err := validatePassword(newPassword); err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		acc.PasswordHash = string(hash)
	}
	if newBranchID != "" {
		acc.BranchID = newBranchID
	}
	tx.Set(username, acc)
	return nil
}

func (s *Service) SetActive(username string, active bool) error {
	username = Normalize(username)

	tx := s.accounts.Lock()
	defer tx.Unlock()
	acc, err := tx.Get(username)
	if err != nil {
		return fmt.Errorf("user %s: %w", username, models.ErrNotFound)
	}
	acc.Active = active
	tx.Set(username, acc)
	return nil
}

func (s *Service) DeleteUser(username string) error {
	username = Normalize(username)

	tx := s.accounts.Lock()
	defer tx.Unlock()
	if _, err := tx.Get(username); err != nil {
		return fmt.Errorf("user %s: %w", username, models.ErrNotFound)
	}
	_ = tx.Del(username)
	return nil
}

func (s *Service) GetUser(username string) (models.UserAccount, error) {
	tx := s.accounts.Lock()
	defer tx.Unlock()
	acc, err := tx.Get(Normalize(username))
	if err != nil {
		return models.UserAccount{}, fmt.Errorf("user %s: %w", username, models.ErrNotFound)
	}
	return *acc, nil
}

// ListUsers returns a snapshot of all accounts.
func (s *Service) ListUsers() []models.UserAccount {
	tx := s.accounts.Lock()
	defer tx.Unlock()
	snap := tx.Snapshot()
	out := make([]models.UserAccount, 0, len(snap))
	for _, acc := range snap {
		out = append(out, *acc)
	}
	return out
}

// LoadAccount inserts an account as stored, skipping password policy.
// Used when loading persisted state at startup.
func (s *Service) LoadAccount(acc models.UserAccount) {
	tx := s.accounts.Lock()
	defer tx.Unlock()
	tx.Set(Normalize(acc.Username), &acc)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return models.ErrWeakPassword
	}
	return nil
}
