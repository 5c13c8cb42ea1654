// Package storage provides abstractions for the document store.
//
// The store holds JSON documents grouped by collection path (for example
// "recipes" or "users/<uid>/savedRecipes") and keyed by id. Besides point
// reads and writes it supports live subscriptions: a handler registered on a
// query or document fires once with the current state and again after every
// write to the collection, one call at a time, until the subscription stops.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned by Update when the target document does not exist.
var ErrNotFound = errors.New("document not found")

// ServerTimestamp is a placeholder field value. The store replaces it with
// the write time in unix milliseconds.
var ServerTimestamp any = serverTimestamp{}

type serverTimestamp struct{}

// Fields is a partial or full set of document fields for a write.
type Fields map[string]any

// Document is a stored document.
type Document struct {
	ID   string
	Data json.RawMessage
}

// DataTo decodes the document into v.
func (d Document) DataTo(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.ID, err)
	}
	return nil
}

// Direction is the sort order of a query.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Filter matches documents whose field equals Value.
type Filter struct {
	Field string
	Value any
}

// Query selects documents from one collection.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
}

// Collection starts a query over the given collection path.
func Collection(path string) Query {
	return Query{Collection: path}
}

// Where adds an equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Order sets the sort field and direction.
func (q Query) Order(field string, dir Direction) Query {
	q.OrderBy = field
	q.Direction = dir
	return q
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks collection and field names.
func (q Query) Validate() error {
	if q.Collection == "" {
		return errors.New("query has no collection")
	}
	for _, f := range q.Filters {
		if !fieldName.MatchString(f.Field) {
			return fmt.Errorf("invalid filter field: %q", f.Field)
		}
	}
	if q.OrderBy != "" && !fieldName.MatchString(q.OrderBy) {
		return fmt.Errorf("invalid order field: %q", q.OrderBy)
	}
	if q.Limit < 0 {
		return fmt.Errorf("invalid limit: %d", q.Limit)
	}
	return nil
}

// SnapshotFunc receives the full result set of a subscribed query.
// err is non-nil when the query could not be evaluated; the subscription
// keeps running.
type SnapshotFunc func(docs []Document, err error)

// DocumentFunc receives the current state of a watched document.
type DocumentFunc func(doc Document, exists bool, err error)

// Subscription is a running live subscription.
type Subscription interface {
	// Stop cancels the subscription. Safe to call more than once.
	Stop()
}

// Store defines the interface for document storage operations.
// This abstraction allows swapping storage backends (SQLite, a hosted
// document database, etc.) without changing the layers above.
type Store interface {
	// Get reads one document. A missing document is (Document{}, false, nil).
	Get(ctx context.Context, collection, id string) (Document, bool, error)

	// Set replaces the document, creating it if needed.
	Set(ctx context.Context, collection, id string, fields Fields) error

	// Merge overlays fields on the document, creating it if needed.
	Merge(ctx context.Context, collection, id string, fields Fields) error

	// Update overlays fields on an existing document.
	// Returns ErrNotFound if the document does not exist.
	Update(ctx context.Context, collection, id string, fields Fields) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Query runs a one-shot query.
	Query(ctx context.Context, q Query) ([]Document, error)

	// Subscribe registers fn on q. fn is called with the initial result and
	// after each write to q.Collection until the subscription is stopped or
	// ctx is done. Calls for one subscription never overlap.
	Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (Subscription, error)

	// WatchDocument is Subscribe for a single document.
	WatchDocument(ctx context.Context, collection, id string, fn DocumentFunc) (Subscription, error)

	// Close releases any resources held by the store.
	Close() error
}
