package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"backoffice/internal/models"
)

func TestCreateAndLookup(t *testing.T) {
	r := NewRegistry()

	s, err := r.Create("Alice", "E1", "B1", "salesman", "conn-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if s.Username != "alice" {
		t.Errorf("username not normalized: %s", s.Username)
	}

	if got, ok := r.ByConn("conn-1"); !ok || got.Username != "alice" {
		t.Errorf("ByConn lookup failed: %+v %v", got, ok)
	}
	if got, ok := r.ByUsername(" ALICE "); !ok || got.ConnID != "conn-1" {
		t.Errorf("ByUsername lookup failed: %+v %v", got, ok)
	}
}

func TestDuplicateLogin(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Create("alice", "E1", "B1", "salesman", "conn-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := r.Create("alice", "E1", "B1", "salesman", "conn-2")
	if !errors.Is(err, models.ErrAlreadyLoggedIn) {
		t.Fatalf("expected ErrAlreadyLoggedIn, got %v", err)
	}

	// The first session must be undisturbed.
	if got, ok := r.ByConn("conn-1"); !ok || got.Username != "alice" {
		t.Error("original session disturbed by rejected duplicate")
	}
	if _, ok := r.ByConn("conn-2"); ok {
		t.Error("rejected login left a session behind")
	}
}

func TestRemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create("bob", "E2", "B2", "cashier", "conn-9"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if s, ok := r.Remove("conn-9"); !ok || s.Username != "bob" {
		t.Fatalf("Remove did not return the session: %+v %v", s, ok)
	}
	if _, ok := r.Remove("conn-9"); ok {
		t.Error("second Remove should be a no-op")
	}
	if _, ok := r.ByUsername("bob"); ok {
		t.Error("username entry survived Remove")
	}

	// Removing a connection that never logged in is fine.
	if _, ok := r.Remove("never-seen"); ok {
		t.Error("Remove of unknown conn reported a session")
	}
}

func TestSnapshotOrderAndIsolation(t *testing.T) {
	r := NewRegistry()
	base := time.Unix(1700000000, 0)
	i := 0
	r.now = func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Second)
	}

	for _, u := range []string{"u1", "u2", "u3"} {
		if _, err := r.Create(u, "E", "B1", "salesman", "conn-"+u); err != nil {
			t.Fatalf("Create %s failed: %v", u, err)
		}
	}

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(snap))
	}
	for j := 1; j < len(snap); j++ {
		if snap[j].LoginTime.Before(snap[j-1].LoginTime) {
			t.Error("snapshot not ordered by login time")
		}
	}

	// Mutating the registry must not disturb an already-taken snapshot.
	r.Remove("conn-u2")
	if len(snap) != 3 {
		t.Error("snapshot changed after Remove")
	}
}

func TestConcurrentLoginRace(t *testing.T) {
	r := NewRegistry()

	const attempts = 32
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Create("race", "E", "B1", "salesman", fmt.Sprintf("conn-%d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, models.ErrAlreadyLoggedIn) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("expected exactly one successful login, got %d", ok)
	}
}
