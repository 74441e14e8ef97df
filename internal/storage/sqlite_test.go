package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStore_SetGetRemove(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_kv.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Expected missing key to be absent, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, KeyCurrency, "EUR"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, KeyCurrency, "GBP"); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}

	val, ok, err := store.Get(ctx, KeyCurrency)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if val != "GBP" {
		t.Errorf("Expected GBP, got %q", val)
	}

	if err := store.Remove(ctx, KeyCurrency); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, KeyCurrency); ok {
		t.Error("Expected key to be removed")
	}

	// Removing twice is a no-op
	if err := store.Remove(ctx, KeyCurrency); err != nil {
		t.Errorf("Second remove failed: %v", err)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_reopen.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Set(ctx, KeyCoupon, "OFF10"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	val, ok, err := reopened.Get(ctx, KeyCoupon)
	if err != nil || !ok || val != "OFF10" {
		t.Errorf("Expected OFF10 after reopen, got %q ok=%v err=%v", val, ok, err)
	}
}
