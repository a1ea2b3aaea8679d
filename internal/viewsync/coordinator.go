package viewsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/uptwnp/deal-network-sub001/internal/filter"
	"github.com/uptwnp/deal-network-sub001/internal/property"
	"github.com/uptwnp/deal-network-sub001/internal/scope"
	"github.com/uptwnp/deal-network-sub001/internal/store"
)

var (
	// ErrBulkLoadInFlight signals that a bulk load for the owner is
	// already running. The trigger is dropped, not queued; the next
	// state change re-evaluates from fresh state.
	ErrBulkLoadInFlight = errors.New("viewsync: bulk load already in flight")

	errMissingClient = errors.New("viewsync: remote client is required")
	errMissingStore  = errors.New("viewsync: record store is required")

	noOpLogger = zap.NewNop()
)

// RemoteAPI is the subset of the remote client the engine consumes.
type RemoteAPI interface {
	GetUserProperties(ctx context.Context) ([]property.Property, error)
	GetPublicProperties(ctx context.Context) ([]property.Property, error)
	GetAllProperties(ctx context.Context) ([]property.Property, error)
	GetProperty(ctx context.Context, id int64) (property.Property, error)
	SearchProperties(ctx context.Context, query, column, listParam string) ([]property.Property, error)
	FilterProperties(ctx context.Context, predicate filter.Predicate, listParam string) ([]property.Property, error)
}

// BaseLoad carries freshly fetched partitions back to the controller.
// Only partitions with the corresponding flag set were fetched.
type BaseLoad struct {
	Mine          []property.Property
	MineFetched   bool
	Public        []property.Property
	PublicFetched bool
}

// CoordinatorConfig wires a Coordinator.
type CoordinatorConfig struct {
	Client   RemoteAPI
	Store    *store.RecordStore
	Notifier Notifier
	Logger   *zap.Logger
}

// Coordinator decides, for a given view state, which network fetches
// are needed, executes them, and guards against overlapping bulk
// loads. It never writes to the record store; committing results is
// the controller's job so stale completions can be discarded.
type Coordinator struct {
	client   RemoteAPI
	store    *store.RecordStore
	notifier Notifier
	logger   *zap.Logger

	mu       sync.Mutex
	inFlight map[int64]bool
}

// NewCoordinator validates the configuration and returns a Coordinator.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Client == nil {
		return nil, errMissingClient
	}
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Coordinator{
		client:   cfg.Client,
		store:    cfg.Store,
		notifier: notifier,
		logger:   logger,
		inFlight: make(map[int64]bool),
	}, nil
}

// FetchBase loads the partitions the scope needs and the load state
// lacks. It returns an empty BaseLoad when everything is cached, and
// ErrBulkLoadInFlight when another bulk load for the owner is running.
func (c *Coordinator) FetchBase(ctx context.Context, ownerID int64, current scope.Scope) (BaseLoad, error) {
	requirement := scope.Resolve(current)
	state := c.store.Loaded(ownerID)
	needMine := requirement.NeedMine && !state.Mine
	needPublic := requirement.NeedPublic && !state.Public

	if !needMine && !needPublic {
		return BaseLoad{}, nil
	}

	if !c.beginBulkLoad(ownerID) {
		return BaseLoad{}, ErrBulkLoadInFlight
	}
	defer c.endBulkLoad(ownerID)

	var load BaseLoad
	switch {
	case needMine && needPublic:
		records, err := c.client.GetAllProperties(ctx)
		if err != nil {
			return BaseLoad{}, c.reportFetchFailure("load properties", err)
		}
		load.Mine, load.Public = partitionByOwner(records, ownerID)
		load.MineFetched = true
		load.PublicFetched = true
	case needMine:
		records, err := c.client.GetUserProperties(ctx)
		if err != nil {
			return BaseLoad{}, c.reportFetchFailure("load your properties", err)
		}
		load.Mine = records
		load.MineFetched = true
	default:
		records, err := c.client.GetPublicProperties(ctx)
		if err != nil {
			return BaseLoad{}, c.reportFetchFailure("load public properties", err)
		}
		load.Public = records
		load.PublicFetched = true
	}
	return load, nil
}

// FetchQuery executes the single request an active search or filter
// needs. When both are active, one search request is issued and the
// predicate is re-applied client-side; the server is never asked
// twice. Calling it with neither active is a programming error.
func (c *Coordinator) FetchQuery(ctx context.Context, q Query) ([]property.Property, error) {
	requirement := scope.Resolve(q.Scope)

	if q.SearchActive() {
		records, err := c.client.SearchProperties(ctx, strings.TrimSpace(q.SearchQuery), q.SearchColumn, requirement.ListParam)
		if err != nil {
			return nil, c.reportFetchFailure("search properties", err)
		}
		if q.FilterActive() {
			records = q.Filter.Apply(records)
		}
		return records, nil
	}

	if q.FilterActive() {
		records, err := c.client.FilterProperties(ctx, q.Filter, requirement.ListParam)
		if err != nil {
			return nil, c.reportFetchFailure("filter properties", err)
		}
		return records, nil
	}

	return nil, fmt.Errorf("viewsync: fetch query invoked with no active search or filter")
}

// FetchRecord retrieves one record, used for the optimistic injection
// after an add completes.
func (c *Coordinator) FetchRecord(ctx context.Context, id int64) (property.Property, error) {
	record, err := c.client.GetProperty(ctx, id)
	if err != nil {
		return property.Property{}, c.reportFetchFailure("load the new property", err)
	}
	return record, nil
}

func (c *Coordinator) beginBulkLoad(ownerID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[ownerID] {
		return false
	}
	c.inFlight[ownerID] = true
	return true
}

func (c *Coordinator) endBulkLoad(ownerID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, ownerID)
}

// reportFetchFailure notifies the user once and passes the error up.
// Stale cached data is never substituted for a failed fetch.
func (c *Coordinator) reportFetchFailure(what string, err error) error {
	c.logger.Error("fetch failed", zap.String("operation", what), zap.Error(err))
	c.notifier.Notify(fmt.Sprintf("Could not %s. Please try again.", what))
	return err
}

// partitionByOwner splits a combined list into the owner's records and
// the publicly visible records of other dealers. A record the owner
// has made public lands in both source lists on the server, so the
// mine partition keeps it and the public partition excludes it; the
// union view de-duplicates by id anyway.
func partitionByOwner(records []property.Property, ownerID int64) (mine, public []property.Property) {
	for _, record := range records {
		if record.OwnerID == ownerID {
			mine = append(mine, record)
			continue
		}
		if record.IsPublic {
			public = append(public, record)
		}
	}
	return mine, public
}
