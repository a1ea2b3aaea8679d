// Package store owns the canonical record lists. The displayed list is
// always a derived view: either the scope-appropriate selection of the
// authoritative lists, or the most recent search/filter result handed
// over by the fetch coordinator. Nothing outside the synchronization
// controller writes here.
package store

import (
	"sync"

	"github.com/uptwnp/deal-network-sub001/internal/property"
	"github.com/uptwnp/deal-network-sub001/internal/scope"
)

// PartitionState records which authoritative lists have been fetched
// for one owner.
type PartitionState struct {
	Mine   bool
	Public bool
}

// RecordStore holds the authoritative mine/public lists, the derived
// displayed list, and the per-owner load-state memo.
type RecordStore struct {
	mu        sync.Mutex
	ownerID   int64
	mine      []property.Property
	public    []property.Property
	displayed []property.Property
	loadState map[int64]PartitionState
}

// NewRecordStore returns an empty store bound to the given owner.
func NewRecordStore(ownerID int64) *RecordStore {
	return &RecordStore{
		ownerID:   ownerID,
		loadState: make(map[int64]PartitionState),
	}
}

// OwnerID returns the owner the store currently serves.
func (s *RecordStore) OwnerID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownerID
}

// SetMine replaces the owned-records list and marks the partition loaded.
func (s *RecordStore) SetMine(records []property.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mine = cloneRecords(records)
	state := s.loadState[s.ownerID]
	state.Mine = true
	s.loadState[s.ownerID] = state
}

// SetPublic replaces the public-records list and marks the partition loaded.
func (s *RecordStore) SetPublic(records []property.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.public = cloneRecords(records)
	state := s.loadState[s.ownerID]
	state.Public = true
	s.loadState[s.ownerID] = state
}

// Loaded reports which partitions have been fetched for the owner.
func (s *RecordStore) Loaded(ownerID int64) PartitionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadState[ownerID]
}

// InvalidateMine clears the mine load mark so the next derivation
// refetches the partition.
func (s *RecordStore) InvalidateMine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.loadState[s.ownerID]
	state.Mine = false
	s.loadState[s.ownerID] = state
}

// InvalidatePublic clears the public load mark.
func (s *RecordStore) InvalidatePublic() {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.loadState[s.ownerID]
	state.Public = false
	s.loadState[s.ownerID] = state
}

// DeriveBase recomputes the displayed list from the authoritative
// lists for the scope. Callers must only use this while no search or
// filter is active; an active query result is owned by SetDisplayed
// and must never be silently overwritten by list changes.
func (s *RecordStore) DeriveBase(current scope.Scope) []property.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	requirement := scope.Resolve(current)
	var base []property.Property
	if requirement.NeedMine {
		base = append(base, s.mine...)
	}
	if requirement.NeedPublic {
		base = append(base, s.public...)
	}
	s.displayed = dedupeByID(base)
	return cloneRecords(s.displayed)
}

// SetDisplayed installs a query (search/filter) result as the
// displayed list.
func (s *RecordStore) SetDisplayed(records []property.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayed = cloneRecords(records)
}

// Displayed returns a copy of the currently displayed list.
func (s *RecordStore) Displayed() []property.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.displayed)
}

// Mine returns a copy of the owned-records list.
func (s *RecordStore) Mine() []property.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.mine)
}

// Public returns a copy of the public-records list.
func (s *RecordStore) Public() []property.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.public)
}

// InjectMine prepends a freshly created record to both the owned list
// and the displayed list. This is the optimistic insertion used right
// after an add completes; it bypasses derivation on purpose.
func (s *RecordStore) InjectMine(record property.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mine = prependUnique(s.mine, record)
	s.displayed = prependUnique(s.displayed, record)
}

// Reset clears every list and all load state, then binds the store to
// the new owner. No record from the previous owner survives.
func (s *RecordStore) Reset(newOwnerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerID = newOwnerID
	s.mine = nil
	s.public = nil
	s.displayed = nil
	s.loadState = make(map[int64]PartitionState)
}

func cloneRecords(records []property.Property) []property.Property {
	if records == nil {
		return nil
	}
	cloned := make([]property.Property, len(records))
	copy(cloned, records)
	return cloned
}

func dedupeByID(records []property.Property) []property.Property {
	seen := make(map[int64]struct{}, len(records))
	deduped := make([]property.Property, 0, len(records))
	for _, record := range records {
		if _, dup := seen[record.ID]; dup {
			continue
		}
		seen[record.ID] = struct{}{}
		deduped = append(deduped, record)
	}
	return deduped
}

func prependUnique(records []property.Property, record property.Property) []property.Property {
	kept := make([]property.Property, 0, len(records)+1)
	kept = append(kept, record)
	for _, existing := range records {
		if existing.ID == record.ID {
			continue
		}
		kept = append(kept, existing)
	}
	return kept
}
