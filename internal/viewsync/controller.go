package viewsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uptwnp/deal-network-sub001/internal/filter"
	"github.com/uptwnp/deal-network-sub001/internal/property"
	"github.com/uptwnp/deal-network-sub001/internal/scope"
	"github.com/uptwnp/deal-network-sub001/internal/store"
)

// MutationKind identifies which record mutation just completed.
type MutationKind string

const (
	MutationEdit       MutationKind = "edit"
	MutationDelete     MutationKind = "delete"
	MutationVisibility MutationKind = "visibility"
	MutationTags       MutationKind = "tags"
)

var errMissingOwner = errors.New("viewsync: owner id is required")

// ControllerConfig wires a Controller.
type ControllerConfig struct {
	Client      RemoteAPI
	Store       *store.RecordStore
	Preferences Preferences
	Notifier    Notifier
	Logger      *zap.Logger
	Dispatcher  *Dispatcher

	OwnerID int64

	// Restored view state, typically read from the preference store.
	InitialScope        scope.Scope
	InitialSearchQuery  string
	InitialSearchColumn string
	InitialFilter       filter.Predicate

	DebounceDelay time.Duration
	Schedule      ScheduleFunc
}

// Controller is the single entry point for every view-state event:
// scope switches, search edits, filter edits, mutation completions and
// owner changes. Each event bumps a generation counter; async fetch
// completions belonging to an older generation are discarded, so a
// late response can never overwrite state the user has since moved
// away from.
type Controller struct {
	coordinator *Coordinator
	store       *store.RecordStore
	prefs       Preferences
	logger      *zap.Logger
	dispatcher  *Dispatcher
	debouncer   *Debouncer

	mu         sync.Mutex
	ctx        context.Context
	ownerID    int64
	view       Query
	generation uint64
}

// NewController validates the configuration and returns a Controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.OwnerID <= 0 {
		return nil, errMissingOwner
	}
	coordinator, err := NewCoordinator(CoordinatorConfig{
		Client:   cfg.Client,
		Store:    cfg.Store,
		Notifier: cfg.Notifier,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	initialScope := cfg.InitialScope
	if initialScope == "" {
		initialScope = scope.DefaultScope
	}

	return &Controller{
		coordinator: coordinator,
		store:       cfg.Store,
		prefs:       cfg.Preferences,
		logger:      logger,
		dispatcher:  cfg.Dispatcher,
		debouncer:   NewDebouncer(cfg.DebounceDelay, cfg.Schedule),
		ctx:         context.Background(),
		ownerID:     cfg.OwnerID,
		view: Query{
			Scope:        initialScope,
			SearchQuery:  cfg.InitialSearchQuery,
			SearchColumn: cfg.InitialSearchColumn,
			Filter:       cfg.InitialFilter,
		},
	}, nil
}

// Start performs the initial load for the restored view state. The
// provided context is also used for debounce-fired work.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	generation := c.generation
	view := c.view
	ownerID := c.ownerID
	c.mu.Unlock()

	if view.SearchActive() || view.FilterActive() {
		c.runQuery(ctx, generation, ownerID, view)
		return
	}
	c.ensureBase(ctx, generation, ownerID, view.Scope)
}

// View returns the current view state.
func (c *Controller) View() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Displayed returns the currently displayed record list.
func (c *Controller) Displayed() []property.Property {
	return c.store.Displayed()
}

// SetScope switches the active partition selection. The new scope is
// persisted as the default; an active search or filter is re-run
// against the new scope, otherwise the base view is served from cache
// with only missing partitions fetched.
func (c *Controller) SetScope(ctx context.Context, next scope.Scope) {
	c.mu.Lock()
	c.view.Scope = next
	generation := c.bumpLocked()
	view := c.view
	ownerID := c.ownerID
	c.mu.Unlock()

	c.persist(func(p Preferences) error { return p.SetActiveScope(next) }, "scope")

	if view.SearchActive() || view.FilterActive() {
		c.runQuery(ctx, generation, ownerID, view)
		return
	}
	c.ensureBase(ctx, generation, ownerID, view.Scope)
}

// SetSearch records a search edit. Non-empty queries are debounced;
// a query that trims to empty reverts immediately — to the filter
// result if a filter is still active, otherwise to the scope's base
// list with no network call when the partitions are cached.
func (c *Controller) SetSearch(ctx context.Context, query, column string) {
	c.mu.Lock()
	c.view.SearchQuery = query
	c.view.SearchColumn = column
	generation := c.bumpLocked()
	view := c.view
	ownerID := c.ownerID
	c.mu.Unlock()

	c.persist(func(p Preferences) error { return p.SetSearchState(query, column) }, "search")

	if !view.SearchActive() {
		c.debouncer.Cancel()
		if view.FilterActive() {
			c.runQuery(ctx, generation, ownerID, view)
			return
		}
		c.ensureBase(ctx, generation, ownerID, view.Scope)
		return
	}

	c.debouncer.Trigger(func() {
		c.flushSearch(generation)
	})
}

// SetFilter applies a filter edit immediately, with no debounce. An
// emptied filter with no active search reverts to the base view.
func (c *Controller) SetFilter(ctx context.Context, predicate filter.Predicate) {
	c.mu.Lock()
	c.view.Filter = predicate
	generation := c.bumpLocked()
	view := c.view
	ownerID := c.ownerID
	c.mu.Unlock()

	c.persist(func(p Preferences) error { return p.SetFilterState(predicate) }, "filter")

	if view.SearchActive() || view.FilterActive() {
		c.runQuery(ctx, generation, ownerID, view)
		return
	}
	c.ensureBase(ctx, generation, ownerID, view.Scope)
}

// RecordMutated reacts to a completed edit, delete, visibility toggle
// or tag update: the affected partitions are invalidated and
// re-fetched, then any still-active search or filter is re-applied
// against the refreshed data.
func (c *Controller) RecordMutated(ctx context.Context, kind MutationKind) {
	c.store.InvalidateMine()
	if kind == MutationVisibility {
		c.store.InvalidatePublic()
	}

	c.mu.Lock()
	generation := c.bumpLocked()
	view := c.view
	ownerID := c.ownerID
	c.mu.Unlock()

	c.ensureBase(ctx, generation, ownerID, view.Scope)

	if view.SearchActive() || view.FilterActive() {
		c.runQuery(ctx, generation, ownerID, view)
	}
}

// AddCompleted reacts to a completed add: the new record is fetched
// and injected into the owned and displayed lists, scope is forced to
// mine, and any active search or filter is cleared so the record is
// guaranteed visible. This is a deliberate UX override.
func (c *Controller) AddCompleted(ctx context.Context, id int64) {
	record, err := c.coordinator.FetchRecord(ctx, id)

	c.mu.Lock()
	c.view.Scope = scope.Mine
	c.view.SearchQuery = ""
	c.view.Filter = filter.Predicate{}
	generation := c.bumpLocked()
	ownerID := c.ownerID
	c.mu.Unlock()

	c.debouncer.Cancel()
	c.persist(func(p Preferences) error { return p.SetActiveScope(scope.Mine) }, "scope")
	c.persist(func(p Preferences) error { return p.SetSearchState("", "") }, "search")
	c.persist(func(p Preferences) error { return p.SetFilterState(filter.Predicate{}) }, "filter")

	if err != nil {
		// The optimistic fetch failed; fall back to a full refresh of
		// the owned partition.
		c.store.InvalidateMine()
		c.ensureBase(ctx, generation, ownerID, scope.Mine)
		return
	}

	c.commit(generation, ownerID, func(Query) ([]property.Property, bool) {
		c.store.InjectMine(record)
		return c.store.DeriveBase(scope.Mine), true
	})
}

// SwitchOwner handles an owner-identity change: all cached state is
// cleared, the active query is dropped, and a fresh bulk load runs for
// the new owner's default scope. No record of the previous owner
// survives the switch.
func (c *Controller) SwitchOwner(ctx context.Context, newOwnerID int64) {
	c.debouncer.Cancel()

	c.mu.Lock()
	c.ownerID = newOwnerID
	c.view.SearchQuery = ""
	c.view.Filter = filter.Predicate{}
	generation := c.bumpLocked()
	view := c.view
	c.mu.Unlock()

	c.store.Reset(newOwnerID)
	c.persist(func(p Preferences) error { return p.SetSearchState("", "") }, "search")
	c.persist(func(p Preferences) error { return p.SetFilterState(filter.Predicate{}) }, "filter")

	c.ensureBase(ctx, generation, newOwnerID, view.Scope)
}

// Refresh re-evaluates the current view state, fetching whatever the
// cache lacks.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	generation := c.generation
	view := c.view
	ownerID := c.ownerID
	c.mu.Unlock()

	if view.SearchActive() || view.FilterActive() {
		c.runQuery(ctx, generation, ownerID, view)
		return
	}
	c.ensureBase(ctx, generation, ownerID, view.Scope)
}

func (c *Controller) flushSearch(generation uint64) {
	c.mu.Lock()
	stale := generation != c.generation
	view := c.view
	ownerID := c.ownerID
	ctx := c.ctx
	c.mu.Unlock()
	if stale {
		return
	}
	c.runQuery(ctx, generation, ownerID, view)
}

func (c *Controller) ensureBase(ctx context.Context, generation uint64, ownerID int64, current scope.Scope) {
	load, err := c.coordinator.FetchBase(ctx, ownerID, current)
	if errors.Is(err, ErrBulkLoadInFlight) {
		return
	}
	if err != nil {
		c.commit(generation, ownerID, func(Query) ([]property.Property, bool) {
			c.store.SetDisplayed([]property.Property{})
			return []property.Property{}, true
		})
		return
	}

	c.commit(generation, ownerID, func(view Query) ([]property.Property, bool) {
		if load.MineFetched {
			c.store.SetMine(load.Mine)
		}
		if load.PublicFetched {
			c.store.SetPublic(load.Public)
		}
		// An active query owns the displayed list; refreshed
		// authoritative lists must not overwrite it.
		if view.SearchActive() || view.FilterActive() {
			return nil, false
		}
		return c.store.DeriveBase(current), true
	})
}

func (c *Controller) runQuery(ctx context.Context, generation uint64, ownerID int64, view Query) {
	records, err := c.coordinator.FetchQuery(ctx, view)
	if err != nil {
		records = []property.Property{}
	}
	c.commit(generation, ownerID, func(Query) ([]property.Property, bool) {
		c.store.SetDisplayed(records)
		return records, true
	})
}

// commit applies a store mutation only if no newer event superseded
// the generation the fetch was issued under. Stale completions are
// dropped on the floor.
func (c *Controller) commit(generation uint64, ownerID int64, apply func(view Query) ([]property.Property, bool)) {
	c.mu.Lock()
	if generation != c.generation || ownerID != c.ownerID {
		c.mu.Unlock()
		c.logger.Debug("discarding stale completion",
			zap.Uint64("generation", generation))
		return
	}
	view := c.view
	c.mu.Unlock()

	records, publish := apply(view)
	if publish && c.dispatcher != nil {
		c.dispatcher.Publish(ViewUpdate{
			OwnerID: ownerID,
			Scope:   view.Scope,
			Records: records,
		})
	}
}

func (c *Controller) bumpLocked() uint64 {
	c.generation++
	return c.generation
}

func (c *Controller) persist(save func(Preferences) error, what string) {
	if c.prefs == nil {
		return
	}
	if err := save(c.prefs); err != nil {
		c.logger.Warn("preference save failed", zap.String("preference", what), zap.Error(err))
	}
}
