// Package cart holds the shopper's ordered cart lines and keeps them in
// sync with the key/value store.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/storage"
)

// ErrUnknownItem is returned when an id is not in the catalog.
var ErrUnknownItem = errors.New("unknown catalog item")

const ledgerVersion = 1

// Ledger is the cart for one profile. The store is the only copy of the
// lines: every read loads them and every mutation loads, edits and writes
// them back before returning, so ledgers over the same store always agree.
type Ledger struct {
	mu      sync.Locker
	store   storage.KeyValueStore
	catalog *domain.Catalog
}

// New returns a ledger over store. Mutations hold lock while they load,
// edit and write; ledgers for the same profile must share it. A nil lock
// gives the ledger its own.
func New(store storage.KeyValueStore, catalog *domain.Catalog, lock sync.Locker) *Ledger {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &Ledger{mu: lock, store: store, catalog: catalog}
}

// View is the cart as read at one moment.
type View struct {
	lines   []domain.CartLine
	catalog *domain.Catalog
}

// Lines returns a copy of the lines in insertion order.
func (v View) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(v.lines))
	copy(out, v.lines)
	return out
}

// Count is the total number of units.
func (v View) Count() int {
	n := 0
	for _, line := range v.lines {
		n += line.Quantity
	}
	return n
}

func (v View) IsEmpty() bool { return len(v.lines) == 0 }

// Subtotal is the sum of price × quantity in base currency.
func (v View) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range v.lines {
		item, ok := v.catalog.Lookup(line.ItemID)
		if !ok {
			continue
		}
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}

// View reads the cart. Unreadable data yields an empty cart.
func (l *Ledger) View(ctx context.Context) View {
	return View{lines: l.load(ctx), catalog: l.catalog}
}

// Snapshot returns the lines in insertion order.
func (l *Ledger) Snapshot(ctx context.Context) []domain.CartLine {
	return l.load(ctx)
}

// Count is the total number of units.
func (l *Ledger) Count(ctx context.Context) int {
	return l.View(ctx).Count()
}

// IsEmpty reports whether the cart has no lines.
func (l *Ledger) IsEmpty(ctx context.Context) bool {
	return l.View(ctx).IsEmpty()
}

// load accepts the versioned envelope and the bare array older clients
// wrote, then drops what no longer prices.
func (l *Ledger) load(ctx context.Context) []domain.CartLine {
	var lines []domain.CartLine
	if !storage.LoadCompat(ctx, l.store, storage.KeyCart, ledgerVersion, &lines) {
		return []domain.CartLine{}
	}
	return l.sanitize(lines)
}

// sanitize drops unknown items and bad quantities and merges duplicate ids
// into the first occurrence.
func (l *Ledger) sanitize(in []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(in))
	seen := make(map[int]bool, len(in))
	for _, line := range in {
		if line.Quantity < 1 || seen[line.ItemID] {
			continue
		}
		if _, ok := l.catalog.Lookup(line.ItemID); !ok {
			continue
		}
		seen[line.ItemID] = true
		out = append(out, line)
	}
	return out
}

// Add puts one unit of itemID in the cart. An existing line is left alone.
func (l *Ledger) Add(ctx context.Context, itemID int) error {
	if _, ok := l.catalog.Lookup(itemID); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownItem, itemID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lines := l.load(ctx)
	if indexOf(lines, itemID) >= 0 {
		return nil
	}
	return l.save(ctx, append(lines, domain.CartLine{ItemID: itemID, Quantity: 1}))
}

// SetQuantity sets the quantity of an existing line. qty < 1 removes it.
func (l *Ledger) SetQuantity(ctx context.Context, itemID, qty int) error {
	if qty < 1 {
		return l.Remove(ctx, itemID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lines := l.load(ctx)
	i := indexOf(lines, itemID)
	if i < 0 || lines[i].Quantity == qty {
		return nil
	}
	lines[i].Quantity = qty
	return l.save(ctx, lines)
}

// Remove deletes the line for itemID if present.
func (l *Ledger) Remove(ctx context.Context, itemID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := l.load(ctx)
	i := indexOf(lines, itemID)
	if i < 0 {
		return nil
	}
	return l.save(ctx, append(lines[:i], lines[i+1:]...))
}

// Clear empties the cart.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.load(ctx)) == 0 {
		return nil
	}
	return l.save(ctx, []domain.CartLine{})
}

func indexOf(lines []domain.CartLine, itemID int) int {
	for i, line := range lines {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}

// save writes lines back. A failed write leaves the stored cart as it was.
// Caller must hold l.mu.
func (l *Ledger) save(ctx context.Context, lines []domain.CartLine) error {
	if err := storage.Save(ctx, l.store, storage.KeyCart, ledgerVersion, lines); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}
