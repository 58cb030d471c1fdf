// Package session tracks which users are connected right now. It enforces
// the one-session-per-username rule and hands out immutable snapshots to
// scanners like the chat matching engine.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"backoffice/internal/auth"
	"backoffice/internal/models"
)

// Registry keeps two maps, keyed by username and by connection ID. They
// are mutated together under one mutex so a session is always reachable
// both ways or absent from both.
type Registry struct {
	mu     sync.Mutex
	byUser map[string]*models.Session
	byConn map[string]*models.Session
	now    func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]*models.Session),
		byConn: make(map[string]*models.Session),
		now:    time.Now,
	}
}

// Create registers a session for username on connID. The duplicate check
// and the insert happen under the same lock, so two racing logins for the
// same username cannot both pass.
func (r *Registry) Create(username, employeeNumber, branchID, userType, connID string) (models.Session, error) {
	username = auth.Normalize(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[username]; ok {
		return models.Session{}, fmt.Errorf("user %s: %w", username, models.ErrAlreadyLoggedIn)
	}

	s := &models.Session{
		Username:       username,
		EmployeeNumber: employeeNumber,
		BranchID:       branchID,
		UserType:       userType,
		ConnID:         connID,
		LoginTime:      r.now(),
	}
	r.byUser[username] = s
	r.byConn[connID] = s
	return *s, nil
}

// Remove drops the session bound to connID, if any. Idempotent; returns
// the removed session so callers can release dependent state.
func (r *Registry) Remove(connID string) (models.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byConn[connID]
	if !ok {
		return models.Session{}, false
	}
	delete(r.byConn, connID)
	delete(r.byUser, s.Username)
	return *s, true
}

func (r *Registry) ByConn(connID string) (models.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byConn[connID]
	if !ok {
		return models.Session{}, false
	}
	return *s, true
}

func (r *Registry) ByUsername(username string) (models.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byUser[auth.Normalize(username)]
	if !ok {
		return models.Session{}, false
	}
	return *s, true
}

// Snapshot returns a point-in-time copy of every live session, ordered by
// login time (oldest first) with username as tie-breaker. Scanners iterate
// the copy, never the live maps.
func (r *Registry) Snapshot() []models.Session {
	r.mu.Lock()
	out := make([]models.Session, 0, len(r.byUser))
	for _, s := range r.byUser {
		out = append(out, *s)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LoginTime.Equal(out[j].LoginTime) {
			return out[i].Username < out[j].Username
		}
		return out[i].LoginTime.Before(out[j].LoginTime)
	})
	return out
}
