package storage

import (
	"chat-wall/domain/document"
	"sync"
)

// Feed is one open listen on a collection.
type Feed struct {
	collection string
	batches    chan document.Batch
	closed     bool
}

// Batches is closed when the feed is evicted or unsubscribed.
func (f *Feed) Batches() <-chan document.Batch {
	return f.batches
}

// ListenerRegistry keeps the open listens of each collection.
// A listener whose buffer is full is evicted instead of blocking writers:
// its channel is closed and the listen has to be reopened, which resyncs
// through a fresh snapshot.
type ListenerRegistry struct {
	mu         sync.RWMutex
	bufferSize int
	listeners  map[string]map[*Feed]struct{} // collection -> listeners
}

func NewListenerRegistry(bufferSize int) *ListenerRegistry {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &ListenerRegistry{
		bufferSize: bufferSize,
		listeners:  make(map[string]map[*Feed]struct{}),
	}
}

// Subscribe registers a listener on a collection.
// The collection set is initialized on the fly.
func (r *ListenerRegistry) Subscribe(collection string) *Feed {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := &Feed{collection: collection, batches: make(chan document.Batch, r.bufferSize)}
	if _, ok := r.listeners[collection]; !ok {
		r.listeners[collection] = make(map[*Feed]struct{})
	}
	r.listeners[collection][l] = struct{}{}
	return l
}

// Unsubscribe removes the listener and drops empty collection sets
// so the map doesn't grow forever.
func (r *ListenerRegistry) Unsubscribe(l *Feed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(l)
}

// Publish hands the batch to every listener of its collection.
// It returns the number of evicted listeners.
func (r *ListenerRegistry) Publish(batch document.Batch) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for l := range r.listeners[batch.Collection] {
		select {
		case l.batches <- batch:
		default:
			r.remove(l)
			evicted++
		}
	}
	return evicted
}

// Count returns the number of open listens on a collection.
func (r *ListenerRegistry) Count(collection string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[collection])
}

func (r *ListenerRegistry) remove(l *Feed) {
	members, ok := r.listeners[l.collection]
	if !ok {
		return
	}
	if _, ok := members[l]; !ok {
		return
	}
	delete(members, l)
	if !l.closed {
		close(l.batches)
		l.closed = true
	}
	if len(members) == 0 {
		delete(r.listeners, l.collection)
	}
}
