// Package commands holds the offline maintenance commands reachable from
// main's flags.
package commands

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"backoffice/internal/config"
	"backoffice/internal/models"
	"backoffice/internal/storage"
)

// AddAdmin bootstraps the first admin account by writing straight to the
// database, for use before the server has any user that could create one.
func AddAdmin(username, password, branchID string, cfg *config.Config) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(password) < 6 {
		return models.ErrWeakPassword
	}

	store, err := storage.NewBboltStorage(cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	existing, err := store.ListAccounts()
	if err != nil {
		return err
	}
	for _, acc := range existing {
		if acc.Username == username {
			return fmt.Errorf("user %s: %w", username, models.ErrDuplicate)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := store.UpsertAccount(models.UserAccount{
		Username:     username,
		PasswordHash: string(hash),
		UserType:     models.RoleAdmin,
		BranchID:     branchID,
		Active:       true,
	}); err != nil {
		return err
	}

	fmt.Printf("\nAdmin Created Successfully!\n")
	fmt.Printf("Username:          %s\n", username)
	fmt.Printf("Branch:            %s\n\n", branchID)
	return nil
}
