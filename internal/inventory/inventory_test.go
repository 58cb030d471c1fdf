package inventory

import (
	"errors"
	"sync"
	"testing"

	"backoffice/internal/catalog"
	"backoffice/internal/models"
)

func newGuard(t *testing.T) (*Guard, *catalog.Catalog) {
	t.Helper()
	cat := catalog.New()
	if err := cat.Add("P1", "Shirt", "clothing", 49.90); err != nil {
		t.Fatalf("catalog setup failed: %v", err)
	}
	return NewGuard(cat), cat
}

func TestAddAndQuantity(t *testing.T) {
	g, _ := newGuard(t)

	if got := g.Quantity("B1", "P1"); got != 0 {
		t.Errorf("unknown product should have quantity 0, got %d", got)
	}
	if err := g.Add("B1", "P1", 5); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := g.Add("B1", "P1", 3); err != nil {
		t.Fatalf("second Add failed: %v", err)
	}
	if got := g.Quantity("B1", "P1"); got != 8 {
		t.Errorf("expected 8, got %d", got)
	}
	if got := g.Quantity("B2", "P1"); got != 0 {
		t.Errorf("other branch should be empty, got %d", got)
	}
	if got := g.TotalQuantity("P1"); got != 8 {
		t.Errorf("total should be 8, got %d", got)
	}
}

func TestInvalidQuantity(t *testing.T) {
	g, _ := newGuard(t)
	for _, qty := range []int{0, -1} {
		if err := g.Add("B1", "P1", qty); !errors.Is(err, models.ErrInvalidQuantity) {
			t.Errorf("Add(%d): expected ErrInvalidQuantity, got %v", qty, err)
		}
		if err := g.Sell("B1", "P1", qty); !errors.Is(err, models.ErrInvalidQuantity) {
			t.Errorf("Sell(%d): expected ErrInvalidQuantity, got %v", qty, err)
		}
		if err := g.Remove("B1", "P1", qty); !errors.Is(err, models.ErrInvalidQuantity) {
			t.Errorf("Remove(%d): expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestUnknownProduct(t *testing.T) {
	g, _ := newGuard(t)
	if err := g.Add("B1", "P404", 3); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestSell(t *testing.T) {
	g, cat := newGuard(t)
	if err := g.Add("B1", "P1", 5); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := g.Sell("B1", "P1", 3); err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	if got := g.Quantity("B1", "P1"); got != 2 {
		t.Errorf("expected 2 left, got %d", got)
	}

	if err := g.Sell("B1", "P1", 3); !errors.Is(err, models.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	if got := g.Quantity("B1", "P1"); got != 2 {
		t.Errorf("failed sell must not change stock, got %d", got)
	}

	if err := cat.SetActive("P1", false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if err := g.Sell("B1", "P1", 1); !errors.Is(err, models.ErrInactiveProduct) {
		t.Errorf("expected ErrInactiveProduct, got %v", err)
	}
	// Remove is for corrections and ignores the active flag.
	if err := g.Remove("B1", "P1", 2); err != nil {
		t.Errorf("Remove of inactive product failed: %v", err)
	}
	if got := g.Quantity("B1", "P1"); got != 0 {
		t.Errorf("expected 0 after removal, got %d", got)
	}
}

// No oversell: concurrent sells that together exceed stock succeed for
// exactly the available amount and fail for the rest.
func TestConcurrentSellNoOversell(t *testing.T) {
	g, _ := newGuard(t)
	const start = 50
	if err := g.Add("B1", "P1", start); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	const sellers = 40
	const each = 3 // 40*3 = 120 requested, only 50 available

	var wg sync.WaitGroup
	results := make(chan error, sellers)
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- g.Sell("B1", "P1", each)
		}()
	}
	wg.Wait()
	close(results)

	sold := 0
	for err := range results {
		switch {
		case err == nil:
			sold += each
		case errors.Is(err, models.ErrInsufficientStock):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	left := g.Quantity("B1", "P1")
	if left < 0 {
		t.Fatalf("stock went negative: %d", left)
	}
	if sold+left != start {
		t.Errorf("sold %d + left %d != start %d", sold, left, start)
	}
	// 50/3 rounds down to 16 full sells and 2 stranded units.
	if sold != 48 || left != 2 {
		t.Errorf("expected 48 sold and 2 left, got sold=%d left=%d", sold, left)
	}
}

func TestSnapshotAndLoad(t *testing.T) {
	g, _ := newGuard(t)
	if err := g.Add("B1", "P1", 5); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := g.Add("B2", "P1", 7); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	snap := g.Snapshot()
	if snap["B1"]["P1"] != 5 || snap["B2"]["P1"] != 7 {
		t.Errorf("unexpected snapshot: %v", snap)
	}

	g2, _ := newGuard(t)
	for branch, stock := range snap {
		for pid, qty := range stock {
			g2.Load(branch, pid, qty)
		}
	}
	if g2.Quantity("B2", "P1") != 7 {
		t.Error("Load did not restore stock")
	}

	// Snapshot is a copy, not a live view.
	snap["B1"]["P1"] = 999
	if g.Quantity("B1", "P1") != 5 {
		t.Error("mutating the snapshot changed live stock")
	}
}
