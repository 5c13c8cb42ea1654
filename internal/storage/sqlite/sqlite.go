// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/scrtch/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the clock used for server timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// WithLogger sets the logger used by subscriptions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) {
		s.logger = logger
	}
}

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	hub    *hub
	now    func() time.Time
	logger *slog.Logger
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string, opts ...Option) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite serializes writers anyway, and subscription
	// re-queries must not race a writer into SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub()
	return s, nil
}

// Close stops every live subscription and closes the database connection.
func (s *SQLiteStore) Close() error {
	s.hub.stopAll()
	return s.db.Close()
}

// Get reads one document.
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (storage.Document, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return storage.Document{}, false, nil
	}
	if err != nil {
		return storage.Document{}, false, fmt.Errorf("failed to get document: %w", err)
	}
	return storage.Document{ID: id, Data: json.RawMessage(data)}, true, nil
}

// Set replaces the document, creating it if needed.
func (s *SQLiteStore) Set(ctx context.Context, collection, id string, fields storage.Fields) error {
	return s.write(ctx, collection, id, fields, writeSet)
}

// Merge overlays fields on the document, creating it if needed.
func (s *SQLiteStore) Merge(ctx context.Context, collection, id string, fields storage.Fields) error {
	return s.write(ctx, collection, id, fields, writeMerge)
}

// Update overlays fields on an existing document.
func (s *SQLiteStore) Update(ctx context.Context, collection, id string, fields storage.Fields) error {
	return s.write(ctx, collection, id, fields, writeUpdate)
}

// Delete removes the document.
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.hub.publish(collection)
	}
	return nil
}

// Query runs a one-shot query.
func (s *SQLiteStore) Query(ctx context.Context, q storage.Query) ([]storage.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	args := []any{q.Collection}
	sb.WriteString("SELECT id, data FROM documents WHERE collection = ?")

	for _, f := range q.Filters {
		sb.WriteString(" AND json_extract(data, ?) = ?")
		args = append(args, "$."+f.Field, f.Value)
	}

	if q.OrderBy != "" {
		dir := "ASC"
		if q.Direction == storage.Descending {
			dir = "DESC"
		}
		sb.WriteString(" ORDER BY json_extract(data, ?) " + dir + ", id ASC")
		args = append(args, "$."+q.OrderBy)
	} else {
		sb.WriteString(" ORDER BY created_at ASC, id ASC")
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var docs []storage.Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, storage.Document{ID: id, Data: json.RawMessage(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

type writeMode int

const (
	writeSet writeMode = iota
	writeMerge
	writeUpdate
)

// write applies fields to a document inside a transaction and wakes the
// collection's subscribers after commit.
func (s *SQLiteStore) write(ctx context.Context, collection, id string, fields storage.Fields, mode writeMode) error {
	now := s.now().UnixMilli()
	resolved := resolveTimestamps(fields, now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	found := true
	err = tx.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&existing)
	if err == sql.ErrNoRows {
		found = false
	} else if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	if mode == writeUpdate && !found {
		return fmt.Errorf("%w: %s/%s", storage.ErrNotFound, collection, id)
	}

	data := resolved
	if mode != writeSet && found {
		base, err := decodeFields(existing)
		if err != nil {
			return err
		}
		for k, v := range resolved {
			base[k] = v
		}
		data = base
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	if found {
		_, err = tx.ExecContext(ctx,
			"UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?",
			string(raw), now, collection, id,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			collection, id, string(raw), now, now,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.hub.publish(collection)
	return nil
}

// resolveTimestamps copies fields, replacing storage.ServerTimestamp with now.
func resolveTimestamps(fields storage.Fields, now int64) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == storage.ServerTimestamp {
			out[k] = now
			continue
		}
		out[k] = v
	}
	return out
}

// decodeFields parses stored JSON, keeping numbers exact.
func decodeFields(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	fields := make(map[string]any)
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode stored document: %w", err)
	}
	return fields, nil
}
