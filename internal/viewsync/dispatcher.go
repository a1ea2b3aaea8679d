package viewsync

import (
	"context"
	"sync"

	"github.com/uptwnp/deal-network-sub001/internal/property"
	"github.com/uptwnp/deal-network-sub001/internal/scope"
)

// ViewUpdate is published every time the displayed list changes.
type ViewUpdate struct {
	OwnerID int64
	Scope   scope.Scope
	Records []property.Property
}

// Dispatcher fans ViewUpdates out to view subscribers. Slow
// subscribers drop updates instead of blocking the controller; a
// dropped update is always followed by a newer one or by the final
// state, so nothing is lost for rendering purposes.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]chan ViewUpdate
	nextID      int64
	bufferSize  int
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subscribers: make(map[int64]chan ViewUpdate),
		bufferSize:  16,
	}
}

// Subscribe registers a view. The subscription ends when the context
// is cancelled or the returned cleanup runs.
func (d *Dispatcher) Subscribe(ctx context.Context) (<-chan ViewUpdate, func()) {
	stream := make(chan ViewUpdate, d.bufferSize)

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subscribers[id] = stream
	d.mu.Unlock()

	cleanup := func() {
		d.mu.Lock()
		delete(d.subscribers, id)
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return stream, cleanup
}

// Publish delivers the update to every current subscriber without
// blocking.
func (d *Dispatcher) Publish(update ViewUpdate) {
	d.mu.RLock()
	streams := make([]chan ViewUpdate, 0, len(d.subscribers))
	for _, stream := range d.subscribers {
		streams = append(streams, stream)
	}
	d.mu.RUnlock()

	for _, stream := range streams {
		select {
		case stream <- update:
		default:
		}
	}
}
