package sqlite

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mmynk/scrtch/internal/storage"
)

// Subscribe registers fn on q and delivers the initial snapshot.
func (s *SQLiteStore) Subscribe(ctx context.Context, q storage.Query, fn storage.SnapshotFunc) (storage.Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	l := s.hub.add(q.Collection)
	l.deliver = func(ctx context.Context) {
		docs, err := s.Query(ctx, q)
		if l.done(ctx) {
			return
		}
		if err != nil {
			s.logger.Debug("Subscription query failed", "collection", q.Collection, "error", err)
		}
		fn(docs, err)
	}

	go l.run(ctx)
	return l, nil
}

// WatchDocument registers fn on a single document.
func (s *SQLiteStore) WatchDocument(ctx context.Context, collection, id string, fn storage.DocumentFunc) (storage.Subscription, error) {
	l := s.hub.add(collection)
	var last json.RawMessage
	var lastExists, delivered bool

	l.deliver = func(ctx context.Context) {
		doc, exists, err := s.Get(ctx, collection, id)
		if l.done(ctx) {
			return
		}
		if err != nil {
			s.logger.Debug("Document watch failed", "collection", collection, "id", id, "error", err)
			fn(storage.Document{}, false, err)
			return
		}
		// Writes to sibling documents wake this listener too; skip unchanged states.
		if delivered && exists == lastExists && string(doc.Data) == string(last) {
			return
		}
		delivered, lastExists, last = true, exists, doc.Data
		fn(doc, exists, nil)
	}

	go l.run(ctx)
	return l, nil
}

// hub tracks the live listeners of each collection.
type hub struct {
	mu        sync.Mutex
	listeners map[string]map[*listener]struct{}
}

func newHub() *hub {
	return &hub{listeners: make(map[string]map[*listener]struct{})}
}

func (h *hub) add(collection string) *listener {
	l := &listener{
		hub:        h,
		collection: collection,
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.listeners[collection]
	if !ok {
		set = make(map[*listener]struct{})
		h.listeners[collection] = set
	}
	set[l] = struct{}{}
	return l
}

func (h *hub) remove(l *listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.listeners[l.collection]
	delete(set, l)
	if len(set) == 0 {
		delete(h.listeners, l.collection)
	}
}

// publish wakes every listener on collection. Wakeups coalesce: a listener
// that is busy delivering re-queries once more when it finishes.
func (h *hub) publish(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for l := range h.listeners[collection] {
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
}

func (h *hub) stopAll() {
	h.mu.Lock()
	var all []*listener
	for _, set := range h.listeners {
		for l := range set {
			all = append(all, l)
		}
	}
	h.mu.Unlock()

	for _, l := range all {
		l.Stop()
	}
}

// listener is one live subscription. Deliveries run on its own goroutine
// so they never overlap.
type listener struct {
	hub        *hub
	collection string
	deliver    func(ctx context.Context)
	wake       chan struct{}
	stop       chan struct{}
	once       sync.Once
}

// Stop cancels the subscription. Safe to call more than once.
func (l *listener) Stop() {
	l.once.Do(func() {
		close(l.stop)
		l.hub.remove(l)
	})
}

func (l *listener) done(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

func (l *listener) run(ctx context.Context) {
	for {
		if l.done(ctx) {
			l.Stop()
			return
		}
		l.deliver(ctx)

		select {
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.stop:
			return
		case <-l.wake:
		}
	}
}
