// Package viewsync keeps the displayed property list consistent with
// the remote server, the active scope, the search query and the filter
// predicate. All mutations of the record store funnel through the
// Controller; the Coordinator decides and executes the minimal set of
// network fetches for any given state.
package viewsync

import (
	"strings"

	"github.com/uptwnp/deal-network-sub001/internal/filter"
	"github.com/uptwnp/deal-network-sub001/internal/scope"
)

// Query captures the view state a fetch decision depends on.
type Query struct {
	Scope        scope.Scope
	SearchQuery  string
	SearchColumn string
	Filter       filter.Predicate
}

// SearchActive reports whether a non-empty trimmed search query is set.
func (q Query) SearchActive() bool {
	return strings.TrimSpace(q.SearchQuery) != ""
}

// FilterActive reports whether any filter constraint is set.
func (q Query) FilterActive() bool {
	return !q.Filter.IsZero()
}

// Notifier surfaces transient, user-visible notices. Implementations
// must not block.
type Notifier interface {
	Notify(message string)
}

// NopNotifier drops every notice.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(string) {}

// Preferences persists the view state the application restores on the
// next start. Failures are logged by the controller, never fatal.
type Preferences interface {
	SetActiveScope(s scope.Scope) error
	SetSearchState(query, column string) error
	SetFilterState(predicate filter.Predicate) error
}
