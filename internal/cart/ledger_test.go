package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"

	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/storage"
)

type flakyStore struct {
	*storage.MemoryStore
	failSet bool
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func newLedger(t *testing.T) (*Ledger, *flakyStore) {
	t.Helper()
	store := &flakyStore{MemoryStore: storage.NewMemoryStore()}
	return New(store, domain.DefaultCatalog(), nil), store
}

func TestLedger_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	if err := l.Add(ctx, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Add(ctx, 1); err != nil {
		t.Fatalf("Add again: %v", err)
	}

	lines := l.Snapshot(ctx)
	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Errorf("Expected one line with qty 1, got %+v", lines)
	}
}

func TestLedger_AddUnknownItem(t *testing.T) {
	l, _ := newLedger(t)

	err := l.Add(context.Background(), 999)
	if !errors.Is(err, ErrUnknownItem) {
		t.Errorf("Expected ErrUnknownItem, got %v", err)
	}
	if !l.IsEmpty(context.Background()) {
		t.Error("Cart should stay empty")
	}
}

func TestLedger_SetQuantity(t *testing.T) {
	tests := []struct {
		name      string
		itemID    int
		qty       int
		wantLines int
		wantCount int
	}{
		{"raise quantity", 1, 3, 1, 3},
		{"zero removes", 1, 0, 0, 0},
		{"negative removes", 1, -2, 0, 0},
		{"absent line is no-op", 2, 5, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l, _ := newLedger(t)
			if err := l.Add(ctx, 1); err != nil {
				t.Fatalf("Add: %v", err)
			}

			if err := l.SetQuantity(ctx, tt.itemID, tt.qty); err != nil {
				t.Fatalf("SetQuantity: %v", err)
			}
			if got := len(l.Snapshot(ctx)); got != tt.wantLines {
				t.Errorf("Expected %d lines, got %d", tt.wantLines, got)
			}
			if got := l.Count(ctx); got != tt.wantCount {
				t.Errorf("Expected count %d, got %d", tt.wantCount, got)
			}
		})
	}
}

func TestLedger_InsertionOrderAndSubtotal(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	for _, id := range []int{2, 1} {
		if err := l.Add(ctx, id); err != nil {
			t.Fatalf("Add(%d): %v", id, err)
		}
	}
	if err := l.SetQuantity(ctx, 1, 2); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}

	lines := l.Snapshot(ctx)
	if lines[0].ItemID != 2 || lines[1].ItemID != 1 {
		t.Errorf("Expected insertion order [2 1], got %+v", lines)
	}
	view := l.View(ctx)
	want := decimal.RequireFromString("44.97")
	if !view.Subtotal().Equal(want) {
		t.Errorf("Expected subtotal %s, got %s", want, view.Subtotal())
	}
	if view.Count() != 3 {
		t.Errorf("Expected 3 units, got %d", view.Count())
	}
}

func TestLedger_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	_ = l.Add(ctx, 1)
	_ = l.Add(ctx, 2)
	_ = l.Add(ctx, 3)

	if err := l.Remove(ctx, 2); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := l.Remove(ctx, 2); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
	lines := l.Snapshot(ctx)
	if len(lines) != 2 || lines[0].ItemID != 1 || lines[1].ItemID != 3 {
		t.Errorf("Unexpected lines after remove: %+v", lines)
	}

	if err := l.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if !l.IsEmpty(ctx) || !l.View(ctx).Subtotal().IsZero() {
		t.Error("Cart should be empty after Clear")
	}
}

func TestLedger_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)
	_ = l.Add(ctx, 3)
	_ = l.Add(ctx, 1)
	_ = l.SetQuantity(ctx, 3, 4)

	reopened := New(store, domain.DefaultCatalog(), nil)
	lines := reopened.Snapshot(ctx)
	if len(lines) != 2 || lines[0].ItemID != 3 || lines[0].Quantity != 4 || lines[1].ItemID != 1 {
		t.Errorf("Reopened cart mismatch: %+v", lines)
	}
}

func TestLedger_FailedWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)
	_ = l.Add(ctx, 1)

	store.failSet = true
	if err := l.Add(ctx, 2); err == nil {
		t.Fatal("Expected write error")
	}
	if err := l.SetQuantity(ctx, 1, 9); err == nil {
		t.Fatal("Expected write error")
	}
	if err := l.Clear(ctx); err == nil {
		t.Fatal("Expected write error")
	}

	lines := l.Snapshot(ctx)
	if len(lines) != 1 || lines[0].ItemID != 1 || lines[0].Quantity != 1 {
		t.Errorf("Stored cart should be unchanged, got %+v", lines)
	}
}

func TestLedger_DecodesStoredValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []domain.CartLine
	}{
		{"envelope", `{"v":1,"data":[{"id":2,"quantity":3}]}`, []domain.CartLine{{ItemID: 2, Quantity: 3}}},
		{"legacy array", `[{"id":1,"name":"Classic Burger","price":12.99,"quantity":2}]`, []domain.CartLine{{ItemID: 1, Quantity: 2}}},
		{"wrong version", `{"v":9,"data":[{"id":2,"quantity":3}]}`, nil},
		{"garbage", `not json`, nil},
		{"unknown item and bad qty dropped", `{"v":1,"data":[{"id":99,"quantity":1},{"id":4,"quantity":0},{"id":5,"quantity":2}]}`, []domain.CartLine{{ItemID: 5, Quantity: 2}}},
		{"duplicate ids keep first", `{"v":1,"data":[{"id":6,"quantity":1},{"id":6,"quantity":7}]}`, []domain.CartLine{{ItemID: 6, Quantity: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			_ = store.Set(ctx, storage.KeyCart, tt.raw)

			got := New(store, domain.DefaultCatalog(), nil).Snapshot(ctx)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %+v, got %+v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestLedger_SharedStoreSeesWrites(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	a := New(store, domain.DefaultCatalog(), nil)
	b := New(store, domain.DefaultCatalog(), nil)

	if err := a.Add(ctx, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := b.Count(ctx); got != 1 {
		t.Fatalf("Second ledger should see the first one's line, got count %d", got)
	}

	if err := b.Add(ctx, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	lines := a.Snapshot(ctx)
	if len(lines) != 2 || lines[0].ItemID != 1 || lines[1].ItemID != 2 {
		t.Errorf("Both lines should survive, got %+v", lines)
	}
}

func TestLedger_ConcurrentAddsKeepEveryLine(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	var lock sync.Mutex

	var wg sync.WaitGroup
	for id := 1; id <= 8; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := New(store, domain.DefaultCatalog(), &lock).Add(ctx, id); err != nil {
				t.Errorf("Add(%d): %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	if got := New(store, domain.DefaultCatalog(), nil).Count(ctx); got != 8 {
		t.Errorf("Expected 8 units, got %d", got)
	}
}

func TestLedger_SeparateRedisClientsAgree(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	open := func() *Ledger {
		store, err := storage.NewRedisStore(ctx, "redis://"+mr.Addr())
		if err != nil {
			t.Fatalf("NewRedisStore: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return New(storage.Namespace(store, "profile:p1"), domain.DefaultCatalog(), nil)
	}
	a, b := open(), open()

	if err := a.Add(ctx, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := b.Add(ctx, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := a.SetQuantity(ctx, 2, 3); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}

	lines := b.Snapshot(ctx)
	if len(lines) != 2 || lines[0].ItemID != 1 || lines[1].ItemID != 2 || lines[1].Quantity != 3 {
		t.Errorf("Both clients' edits should be kept, got %+v", lines)
	}
}
