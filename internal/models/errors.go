package models

import "errors"

// Domain errors. The protocol dispatcher classifies these with errors.Is
// and folds each into exactly one reply line; they never cross a
// connection boundary.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAlreadyLoggedIn    = errors.New("user is already logged in from another location")
	ErrNotLoggedIn        = errors.New("you must login first")
	ErrUnauthorized       = errors.New("operation not permitted")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")

	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")

	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInactiveProduct   = errors.New("product is inactive")

	ErrAlreadyInQueue     = errors.New("user is already in queue")
	ErrAlreadyInChat      = errors.New("user is already in a chat")
	ErrChatNotActive      = errors.New("chat not found or not active")
	ErrNotParticipant     = errors.New("user is not a participant in this chat")
	ErrRequestUnavailable = errors.New("request no longer available")

	ErrProtocol = errors.New("protocol error")
)

// IsAuthError reports whether err maps to the AUTH_ERROR reply prefix
// rather than the plain ERROR prefix.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrAlreadyLoggedIn) ||
		errors.Is(err, ErrNotLoggedIn) ||
		errors.Is(err, ErrUnauthorized)
}
