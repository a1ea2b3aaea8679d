package viewsync

import (
	"context"
	"strings"
	"sync"

	"github.com/uptwnp/deal-network-sub001/internal/filter"
	"github.com/uptwnp/deal-network-sub001/internal/property"
	"github.com/uptwnp/deal-network-sub001/internal/scope"
)

// fakeRemote emulates the remote endpoint, mirroring the server-side
// search and filter semantics with the shared predicate evaluator.
type fakeRemote struct {
	mu      sync.Mutex
	mine    []property.Property
	public  []property.Property
	calls   []string
	failing bool

	// gate, when set, holds bulk-load calls open until closed.
	gate    chan struct{}
	started chan struct{}
}

type fakeError struct{}

func (fakeError) Error() string { return "remote unavailable" }

func (f *fakeRemote) record(action string) error {
	f.mu.Lock()
	f.calls = append(f.calls, action)
	failing := f.failing
	gate := f.gate
	started := f.started
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	if failing {
		return fakeError{}
	}
	return nil
}

func (f *fakeRemote) callCount(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == action {
			count++
		}
	}
	return count
}

func (f *fakeRemote) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRemote) GetUserProperties(context.Context) ([]property.Property, error) {
	if err := f.record("get_user_properties"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]property.Property(nil), f.mine...), nil
}

func (f *fakeRemote) GetPublicProperties(context.Context) ([]property.Property, error) {
	if err := f.record("get_public_properties"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]property.Property(nil), f.public...), nil
}

func (f *fakeRemote) GetAllProperties(context.Context) ([]property.Property, error) {
	if err := f.record("get_all_properties"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	combined := append([]property.Property(nil), f.mine...)
	return append(combined, f.public...), nil
}

func (f *fakeRemote) GetProperty(_ context.Context, id int64) (property.Property, error) {
	if err := f.record("get_property"); err != nil {
		return property.Property{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range append(append([]property.Property(nil), f.mine...), f.public...) {
		if record.ID == id {
			return record, nil
		}
	}
	return property.Property{}, fakeError{}
}

func (f *fakeRemote) SearchProperties(_ context.Context, query, column, listParam string) ([]property.Property, error) {
	if err := f.record("search_properties"); err != nil {
		return nil, err
	}
	term := strings.ToLower(query)
	matched := make([]property.Property, 0)
	for _, record := range f.scoped(listParam) {
		var haystack string
		switch column {
		case "city":
			haystack = record.City
		case "tags":
			haystack = record.Tags
		default:
			haystack = record.Description
		}
		if strings.Contains(strings.ToLower(haystack), term) {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (f *fakeRemote) FilterProperties(_ context.Context, predicate filter.Predicate, listParam string) ([]property.Property, error) {
	if err := f.record("filter_properties"); err != nil {
		return nil, err
	}
	return predicate.Apply(f.scoped(listParam)), nil
}

func (f *fakeRemote) scoped(listParam string) []property.Property {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch listParam {
	case "mine":
		return append([]property.Property(nil), f.mine...)
	case "public":
		return append([]property.Property(nil), f.public...)
	default:
		combined := append([]property.Property(nil), f.mine...)
		return append(combined, f.public...)
	}
}

// recordingNotifier captures transient notices.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// recordingPrefs captures persisted view state.
type recordingPrefs struct {
	mu           sync.Mutex
	scopeValue   scope.Scope
	searchQuery  string
	searchColumn string
	filterValue  filter.Predicate
}

func (p *recordingPrefs) SetActiveScope(s scope.Scope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scopeValue = s
	return nil
}

func (p *recordingPrefs) SetSearchState(query, column string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchQuery = query
	p.searchColumn = column
	return nil
}

func (p *recordingPrefs) SetFilterState(predicate filter.Predicate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filterValue = predicate
	return nil
}

func (p *recordingPrefs) savedScope() scope.Scope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scopeValue
}

func (p *recordingPrefs) savedSearch() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.searchQuery, p.searchColumn
}
