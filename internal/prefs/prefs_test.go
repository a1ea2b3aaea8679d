package prefs

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/uptwnp/deal-network-sub001/internal/filter"
	"github.com/uptwnp/deal-network-sub001/internal/scope"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:prefs_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	store, err := NewStore(StoreConfig{
		Database: db,
		Clock:    func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	return store
}

func TestScopeRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if _, found := store.ActiveScope(); found {
		t.Fatalf("fresh store should have no scope preference")
	}
	if err := store.SetActiveScope(scope.All); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	saved, found := store.ActiveScope()
	if !found || saved != scope.All {
		t.Fatalf("expected scope all, got %q found=%v", saved, found)
	}

	if err := store.SetActiveScope(scope.Public); err != nil {
		t.Fatalf("unexpected overwrite error: %v", err)
	}
	saved, _ = store.ActiveScope()
	if saved != scope.Public {
		t.Fatalf("expected overwritten scope, got %q", saved)
	}
}

func TestSearchStateRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if err := store.SetSearchState("villa", "description"); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	query, column := store.SearchState()
	if query != "villa" || column != "description" {
		t.Fatalf("unexpected search state: %q %q", query, column)
	}
}

func TestFilterStateRoundTrip(t *testing.T) {
	store := newTestStore(t)
	minPrice := 50.0

	if err := store.SetFilterState(filter.Predicate{Type: "House", MinPrice: &minPrice}); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	predicate, found := store.FilterState()
	if !found {
		t.Fatalf("expected stored predicate")
	}
	if predicate.Type != "House" || predicate.MinPrice == nil || *predicate.MinPrice != 50 {
		t.Fatalf("unexpected predicate: %+v", predicate)
	}

	if err := store.SetFilterState(filter.Predicate{}); err != nil {
		t.Fatalf("unexpected clear error: %v", err)
	}
	if _, found := store.FilterState(); found {
		t.Fatalf("cleared predicate should read as not set")
	}
}

func TestVisitedFlagAndInstallDismissal(t *testing.T) {
	store := newTestStore(t)

	if store.Visited() {
		t.Fatalf("fresh store should not be visited")
	}
	if err := store.MarkVisited(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.Visited() {
		t.Fatalf("visited flag should persist")
	}

	dismissedAt := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	if err := store.SetInstallDismissedAt(dismissedAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, found := store.InstallDismissedAt()
	if !found || !stored.Equal(dismissedAt) {
		t.Fatalf("unexpected dismissal timestamp: %v found=%v", stored, found)
	}
}

func TestDeviceIDIsStable(t *testing.T) {
	store := newTestStore(t)

	first, err := store.DeviceID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == "" {
		t.Fatalf("expected minted device id")
	}
	second, err := store.DeviceID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("device id must be stable: %q vs %q", first, second)
	}
}
