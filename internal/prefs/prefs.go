// Package prefs persists the small key-value UI preferences the
// application restores between sessions: active scope, search state,
// filter predicate, map tile choice, visited flag, install-prompt
// dismissal and the per-install device identifier.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uptwnp/deal-network-sub001/internal/filter"
	"github.com/uptwnp/deal-network-sub001/internal/scope"
)

const (
	keyActiveScope        = "active_scope"
	keySearchQuery        = "search_query"
	keySearchColumn       = "search_column"
	keyFilterPredicate    = "filter_predicate"
	keyMapTile            = "map_tile"
	keyVisited            = "visited"
	keyInstallDismissedAt = "install_dismissed_at"
	keyDeviceID           = "device_id"
)

var (
	errMissingDatabase = errors.New("preference database handle is required")
	noOpLogger         = zap.NewNop()
)

// StoreError carries a coded preference-store failure.
type StoreError struct {
	code string
	err  error
}

func (e *StoreError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *StoreError) Unwrap() error {
	return e.err
}

func newStoreError(operation, reason string, cause error) error {
	return &StoreError{code: fmt.Sprintf("prefs.%s.%s", operation, reason), err: cause}
}

// Entry is one persisted preference.
type Entry struct {
	Key              string `gorm:"column:key;primaryKey;size:190;not null"`
	Value            string `gorm:"column:value;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Entry) TableName() string {
	return "ui_preferences"
}

// StoreConfig configures the preference store.
type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Store reads and writes preferences. Reads treat a missing key as
// "not set"; writes upsert.
type Store struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewStore validates the configuration and returns a Store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, newStoreError("new", "missing_database", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Store{db: cfg.Database, clock: clock, logger: logger}, nil
}

// ActiveScope returns the persisted default scope, if any.
func (s *Store) ActiveScope() (scope.Scope, bool) {
	raw, found := s.get(keyActiveScope)
	if !found {
		return "", false
	}
	parsed, err := scope.Parse(raw)
	if err != nil {
		s.logger.Warn("ignoring corrupted scope preference", zap.String("value", raw))
		return "", false
	}
	return parsed, true
}

// SetActiveScope persists the default scope.
func (s *Store) SetActiveScope(value scope.Scope) error {
	return s.set(keyActiveScope, value.String())
}

// SearchState returns the persisted search query and column.
func (s *Store) SearchState() (query, column string) {
	query, _ = s.get(keySearchQuery)
	column, _ = s.get(keySearchColumn)
	return query, column
}

// SetSearchState persists the search query and column.
func (s *Store) SetSearchState(query, column string) error {
	if err := s.set(keySearchQuery, query); err != nil {
		return err
	}
	return s.set(keySearchColumn, column)
}

// FilterState returns the persisted filter predicate, if any.
func (s *Store) FilterState() (filter.Predicate, bool) {
	raw, found := s.get(keyFilterPredicate)
	if !found || raw == "" {
		return filter.Predicate{}, false
	}
	var predicate filter.Predicate
	if err := json.Unmarshal([]byte(raw), &predicate); err != nil {
		s.logger.Warn("ignoring corrupted filter preference", zap.Error(err))
		return filter.Predicate{}, false
	}
	return predicate, true
}

// SetFilterState persists the filter predicate as JSON.
func (s *Store) SetFilterState(predicate filter.Predicate) error {
	if predicate.IsZero() {
		return s.set(keyFilterPredicate, "")
	}
	encoded, err := json.Marshal(predicate)
	if err != nil {
		return newStoreError("set_filter", "encode_failed", err)
	}
	return s.set(keyFilterPredicate, string(encoded))
}

// MapTile returns the persisted map tile preference, if any.
func (s *Store) MapTile() (string, bool) {
	return s.get(keyMapTile)
}

// SetMapTile persists the map tile preference.
func (s *Store) SetMapTile(tile string) error {
	return s.set(keyMapTile, tile)
}

// Visited reports whether the one-time visited flag has been set.
func (s *Store) Visited() bool {
	raw, found := s.get(keyVisited)
	return found && raw == "1"
}

// MarkVisited sets the one-time visited flag.
func (s *Store) MarkVisited() error {
	return s.set(keyVisited, "1")
}

// InstallDismissedAt returns when the install prompt was last
// dismissed, if ever.
func (s *Store) InstallDismissedAt() (time.Time, bool) {
	raw, found := s.get(keyInstallDismissedAt)
	if !found || raw == "" {
		return time.Time{}, false
	}
	dismissedAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.logger.Warn("ignoring corrupted install dismissal timestamp", zap.String("value", raw))
		return time.Time{}, false
	}
	return dismissedAt, true
}

// SetInstallDismissedAt records an install-prompt dismissal.
func (s *Store) SetInstallDismissedAt(dismissedAt time.Time) error {
	return s.set(keyInstallDismissedAt, dismissedAt.UTC().Format(time.RFC3339))
}

// DeviceID returns the stable per-install identifier, minting one on
// first use.
func (s *Store) DeviceID() (string, error) {
	if existing, found := s.get(keyDeviceID); found && existing != "" {
		return existing, nil
	}
	minted := uuid.NewString()
	if err := s.set(keyDeviceID, minted); err != nil {
		return "", err
	}
	return minted, nil
}

func (s *Store) get(key string) (string, bool) {
	var entry Entry
	err := s.db.Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	}
	if err != nil {
		s.logger.Error("preference read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return entry.Value, true
}

func (s *Store) set(key, value string) error {
	entry := Entry{
		Key:              key,
		Value:            value,
		UpdatedAtSeconds: s.clock().UTC().Unix(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at_s"}),
	}).Create(&entry).Error
	if err != nil {
		return newStoreError("set", "write_failed", err)
	}
	return nil
}
