// Package ledger tracks which recipes each user has saved to their recipe book.
//
// A bookmark is a document {recipeId, savedAt} in the user's savedRecipes
// collection, keyed by recipe id. Existence is the bookmark; there are no
// updates. Saving and unsaving are idempotent.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/scrtch/internal/metrics"
	"github.com/mmynk/scrtch/internal/middleware"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/internal/storage"
)

// Collection returns the savedRecipes collection path of a user.
func Collection(uid string) string {
	return "users/" + uid + "/savedRecipes"
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithCurrentUser overrides how the signed-in user id is read from a context.
func WithCurrentUser(fn func(context.Context) string) Option {
	return func(l *Ledger) {
		l.currentUser = fn
	}
}

// Ledger reads and writes bookmarks.
type Ledger struct {
	store       storage.Store
	logger      *slog.Logger
	currentUser func(context.Context) string
}

// New creates a ledger over store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:       store,
		logger:      slog.Default(),
		currentUser: middleware.GetUserID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Save bookmarks recipeID for uid. Saving again refreshes savedAt and keeps
// a single record.
func (l *Ledger) Save(ctx context.Context, uid, recipeID string) error {
	if err := l.authorize(ctx, uid); err != nil {
		return err
	}

	err := l.store.Merge(ctx, Collection(uid), recipeID, storage.Fields{
		"recipeId": recipeID,
		"savedAt":  storage.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to save recipe: %w: %w", models.ErrStoreUnavailable, err)
	}

	l.logger.Debug("Saved recipe", "user_id", uid, "recipe_id", recipeID)
	return nil
}

// Unsave removes the bookmark. Removing a missing bookmark succeeds.
func (l *Ledger) Unsave(ctx context.Context, uid, recipeID string) error {
	if err := l.authorize(ctx, uid); err != nil {
		return err
	}

	if err := l.store.Delete(ctx, Collection(uid), recipeID); err != nil {
		return fmt.Errorf("failed to unsave recipe: %w: %w", models.ErrStoreUnavailable, err)
	}

	l.logger.Debug("Unsaved recipe", "user_id", uid, "recipe_id", recipeID)
	return nil
}

// SavedIDs returns uid's saved recipe ids, most recently saved first.
func (l *Ledger) SavedIDs(ctx context.Context, uid string) ([]string, error) {
	docs, err := l.store.Query(ctx, savedQuery(uid))
	if err != nil {
		return nil, fmt.Errorf("failed to list saved recipes: %w: %w", models.ErrStoreUnavailable, err)
	}
	return l.recipeIDs(docs), nil
}

// WatchSaved calls fn with whether uid has saved recipeID, once now and
// again whenever that changes, until ctx ends or the subscription stops.
func (l *Ledger) WatchSaved(ctx context.Context, uid, recipeID string, fn func(saved bool)) (storage.Subscription, error) {
	return l.store.WatchDocument(ctx, Collection(uid), recipeID, func(_ storage.Document, exists bool, err error) {
		if err != nil {
			l.logger.Error("Saved-state watch failed", "user_id", uid, "recipe_id", recipeID, "error", err)
			metrics.SubscriptionSnapshots.WithLabelValues("saved", "error").Inc()
			return
		}
		metrics.SubscriptionSnapshots.WithLabelValues("saved", "ok").Inc()
		fn(exists)
	})
}

// WatchSavedIDs calls fn with uid's saved recipe ids, most recent first,
// once now and after every change.
func (l *Ledger) WatchSavedIDs(ctx context.Context, uid string, fn func(ids []string)) (storage.Subscription, error) {
	return l.store.Subscribe(ctx, savedQuery(uid), func(docs []storage.Document, err error) {
		if err != nil {
			l.logger.Error("Saved-recipes subscription failed", "user_id", uid, "error", err)
			metrics.SubscriptionSnapshots.WithLabelValues("saved_ids", "error").Inc()
			return
		}
		metrics.SubscriptionSnapshots.WithLabelValues("saved_ids", "ok").Inc()
		fn(l.recipeIDs(docs))
	})
}

// authorize checks that the caller is signed in as uid.
func (l *Ledger) authorize(ctx context.Context, uid string) error {
	caller := l.currentUser(ctx)
	if caller == "" {
		return models.ErrUnauthenticated
	}
	if uid != caller {
		return models.ErrPermissionDenied
	}
	return nil
}

func savedQuery(uid string) storage.Query {
	return storage.Collection(Collection(uid)).Order("savedAt", storage.Descending)
}

func (l *Ledger) recipeIDs(docs []storage.Document) []string {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		var saved models.SavedRecipe
		if err := doc.DataTo(&saved); err != nil || saved.RecipeID == "" {
			l.logger.Debug("Dropping malformed bookmark", "id", doc.ID, "error", err)
			metrics.DroppedDocuments.Inc()
			continue
		}
		ids = append(ids, saved.RecipeID)
	}
	return ids
}
