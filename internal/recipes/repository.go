// Package recipes is the single read path for recipes.
//
// A Repository keeps an ordered in-memory cache fed by live store
// subscriptions, direct point reads and optimistic local writes. Readers get
// deep-copied snapshots and never see a half-applied update. Entries are
// last-write-wins by id: a stale subscription snapshot that lands after a
// fresher local write replaces it until the next snapshot arrives.
package recipes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/scrtch/internal/metrics"
	"github.com/mmynk/scrtch/internal/middleware"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/internal/storage"
)

// Collection is the store collection holding recipe documents.
const Collection = "recipes"

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// WithSeed replaces the built-in seed recipes.
func WithSeed(seed []models.Recipe) Option {
	return func(r *Repository) {
		r.seed = seed
	}
}

// WithCurrentUser overrides how the signed-in user id is read from a context.
func WithCurrentUser(fn func(context.Context) string) Option {
	return func(r *Repository) {
		r.currentUser = fn
	}
}

// WithOwnerIdleTimeout sets how long an owner subscription stays open after
// its user last listed recipes. Zero keeps owner subscriptions until stopped.
func WithOwnerIdleTimeout(d time.Duration) Option {
	return func(r *Repository) {
		r.ownerIdle = d
	}
}

// WithSweepInterval sets how often Run looks for idle owner subscriptions.
func WithSweepInterval(d time.Duration) Option {
	return func(r *Repository) {
		r.sweepInterval = d
	}
}

// WithClock sets the clock used for idle tracking.
func WithClock(clock func() time.Time) Option {
	return func(r *Repository) {
		r.clock = clock
	}
}

// ListenConfig selects which live subscriptions StartListening opens.
type ListenConfig struct {
	// PublicOnly skips the signed-in user's own recipes.
	PublicOnly bool
}

// Repository caches recipes from a document store.
type Repository struct {
	store       storage.Store
	logger      *slog.Logger
	currentUser func(context.Context) string
	seed        []models.Recipe

	mu    sync.RWMutex
	cache []models.Recipe

	subMu  sync.Mutex
	public storage.Subscription
	owners map[string]*ownerSub

	ownerIdle     time.Duration
	sweepInterval time.Duration
	clock         func() time.Time

	// Subscriptions outlive the request that starts them.
	ctx    context.Context
	cancel context.CancelFunc
}

type ownerSub struct {
	sub      storage.Subscription
	lastUsed time.Time
}

// New creates a repository over store, primed with the seed recipes.
func New(store storage.Store, opts ...Option) (*Repository, error) {
	r := &Repository{
		store:       store,
		logger:      slog.Default(),
		currentUser:   middleware.GetUserID,
		owners:        make(map[string]*ownerSub),
		ownerIdle:     30 * time.Minute,
		sweepInterval: time.Minute,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.seed == nil {
		seed, err := Seeds()
		if err != nil {
			return nil, err
		}
		r.seed = seed
	}
	r.cache = MergeByID(nil, r.seed)
	metrics.RecipeCacheSize.Set(float64(len(r.cache)))

	r.ctx, r.cancel = context.WithCancel(context.Background())
	return r, nil
}

// StartListening opens the public subscription and, when ctx carries a
// signed-in user, that user's own-recipes subscription. Subscriptions that
// are already running are left alone; a running owner subscription is marked
// used so the idle sweep keeps it.
func (r *Repository) StartListening(ctx context.Context, cfg ListenConfig) error {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	if r.ctx.Err() != nil {
		return errors.New("repository is closed")
	}

	if r.public == nil {
		q := storage.Collection(Collection).
			Where("visibility", string(models.VisibilityPublic)).
			Order("updatedAt", storage.Descending)
		sub, err := r.store.Subscribe(r.ctx, q, r.onSnapshot("public"))
		if err != nil {
			return fmt.Errorf("failed to subscribe to public recipes: %w", err)
		}
		r.public = sub
		r.logger.Debug("Listening for public recipes")
	}

	uid := r.currentUser(ctx)
	if cfg.PublicOnly || uid == "" {
		return nil
	}
	if o, ok := r.owners[uid]; ok {
		o.lastUsed = r.clock()
		return nil
	}

	q := storage.Collection(Collection).
		Where("ownerId", uid).
		Order("updatedAt", storage.Descending)
	sub, err := r.store.Subscribe(r.ctx, q, r.onSnapshot("owner"))
	if err != nil {
		return fmt.Errorf("failed to subscribe to recipes of %s: %w", uid, err)
	}
	r.owners[uid] = &ownerSub{sub: sub, lastUsed: r.clock()}
	r.logger.Debug("Listening for owner recipes", "user_id", uid)
	return nil
}

// StopListening stops every subscription. Cached recipes are kept.
func (r *Repository) StopListening() {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	if r.public != nil {
		r.public.Stop()
		r.public = nil
	}
	for uid, o := range r.owners {
		o.sub.Stop()
		delete(r.owners, uid)
	}
}

// StopOwner stops the own-recipes subscription of one user.
func (r *Repository) StopOwner(uid string) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	if o, ok := r.owners[uid]; ok {
		o.sub.Stop()
		delete(r.owners, uid)
		r.logger.Debug("Stopped owner recipes", "user_id", uid)
	}
}

// Owners returns the number of open owner subscriptions.
func (r *Repository) Owners() int {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	return len(r.owners)
}

// SweepOwners stops owner subscriptions unused for longer than the idle
// timeout and returns how many it stopped. Cached recipes are kept.
func (r *Repository) SweepOwners() int {
	if r.ownerIdle <= 0 {
		return 0
	}
	now := r.clock()

	r.subMu.Lock()
	defer r.subMu.Unlock()

	n := 0
	for uid, o := range r.owners {
		if now.Sub(o.lastUsed) > r.ownerIdle {
			o.sub.Stop()
			delete(r.owners, uid)
			n++
		}
	}
	return n
}

// Run sweeps idle owner subscriptions until ctx ends or the repository is
// closed.
func (r *Repository) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if n := r.SweepOwners(); n > 0 {
				r.logger.Info("Stopped idle owner subscriptions", "count", n)
			}
		}
	}
}

// Listening reports whether the public subscription and the given user's
// subscription are running. An empty uid only checks the public one.
func (r *Repository) Listening(uid string) bool {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	if r.public == nil {
		return false
	}
	if uid == "" {
		return true
	}
	_, ok := r.owners[uid]
	return ok
}

// Close stops all subscriptions. The repository cannot listen again afterwards.
func (r *Repository) Close() {
	r.StopListening()
	r.cancel()
}

// All returns the cached recipes in order.
func (r *Repository) All() []models.Recipe {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Recipe, len(r.cache))
	for i, rec := range r.cache {
		out[i] = rec.Clone()
	}
	return out
}

// ByID looks up a cached recipe.
func (r *Repository) ByID(id string) (models.Recipe, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.cache {
		if rec.ID == id {
			return rec.Clone(), true
		}
	}
	return models.Recipe{}, false
}

// Fetch reads a recipe from the store, bypassing the cache.
// A missing or malformed document is reported as not found.
func (r *Repository) Fetch(ctx context.Context, id string) (models.Recipe, bool, error) {
	doc, found, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return models.Recipe{}, false, fmt.Errorf("failed to fetch recipe %s: %w: %w", id, models.ErrStoreUnavailable, err)
	}
	if !found {
		return models.Recipe{}, false, nil
	}

	rec, ok := r.decode(doc)
	if !ok {
		return models.Recipe{}, false, nil
	}

	r.upsert(rec)
	return rec.Clone(), true, nil
}

// Load returns the cached recipe, falling back to a store read.
func (r *Repository) Load(ctx context.Context, id string) (models.Recipe, bool, error) {
	if rec, ok := r.ByID(id); ok {
		return rec, true, nil
	}
	return r.Fetch(ctx, id)
}

// Create writes a new recipe owned by the signed-in user and returns its id.
// An empty id is assigned. Fields with no value are left out of the document.
func (r *Repository) Create(ctx context.Context, rec models.Recipe) (string, error) {
	uid := r.currentUser(ctx)
	if uid == "" {
		return "", models.ErrUnauthenticated
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	fields, err := models.NewRecipeDocument(rec).Fields()
	if err != nil {
		return "", err
	}
	fields["ownerId"] = uid
	fields["createdAt"] = storage.ServerTimestamp
	fields["updatedAt"] = storage.ServerTimestamp

	if err := r.store.Set(ctx, Collection, rec.ID, fields); err != nil {
		return "", fmt.Errorf("failed to create recipe: %w: %w", models.ErrStoreUnavailable, err)
	}

	rec.OwnerID = uid
	r.upsert(rec)

	r.logger.Debug("Created recipe", "recipe_id", rec.ID, "user_id", uid, "parent_id", rec.ParentID)
	return rec.ID, nil
}

// Update patches an existing recipe with the defined fields of rec.
// Empty optional text fields are left out of the patch, so they cannot be
// cleared through Update: the stored value stays and the cached copy keeps
// it too. Lists and required fields are always written.
// Returns storage.ErrNotFound if the recipe was never stored.
func (r *Repository) Update(ctx context.Context, rec models.Recipe) error {
	uid := r.currentUser(ctx)
	if uid == "" {
		return models.ErrUnauthenticated
	}

	fields, err := models.NewRecipeDocument(rec).Fields()
	if err != nil {
		return err
	}
	fields["updatedAt"] = storage.ServerTimestamp

	if err := r.store.Update(ctx, Collection, rec.ID, fields); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update recipe: %w: %w", models.ErrStoreUnavailable, err)
	}

	if cached, ok := r.ByID(rec.ID); ok {
		keep := func(field *string, old string) {
			if *field == "" {
				*field = old
			}
		}
		keep(&rec.Description, cached.Description)
		keep(&rec.AuthorName, cached.AuthorName)
		keep(&rec.ParentID, cached.ParentID)
		keep(&rec.RootID, cached.RootID)
		keep(&rec.ForkReason, cached.ForkReason)
		keep(&rec.OwnerID, cached.OwnerID)
		if rec.CreatedAt == 0 {
			rec.CreatedAt = cached.CreatedAt
		}
	}
	r.upsert(rec)
	return nil
}

// ResolveRoot returns the cached root of rec's fork chain.
func (r *Repository) ResolveRoot(rec models.Recipe) (models.Recipe, bool) {
	return r.ByID(models.RootOf(rec))
}

// LoadRoot is ResolveRoot with a store read on a cache miss.
func (r *Repository) LoadRoot(ctx context.Context, rec models.Recipe) (models.Recipe, bool, error) {
	if root, ok := r.ResolveRoot(rec); ok {
		return root, true, nil
	}
	return r.Fetch(ctx, models.RootOf(rec))
}

// Hydrate resolves ids into recipes in the given order, skipping ids that
// do not resolve. If ctx ends part way through, the partial result is
// discarded and ctx.Err() is returned.
func (r *Repository) Hydrate(ctx context.Context, ids []string) ([]models.Recipe, error) {
	out := make([]models.Recipe, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, found, err := r.Load(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		if found {
			out = append(out, rec)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Len returns the number of cached recipes.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Repository) onSnapshot(name string) storage.SnapshotFunc {
	return func(docs []storage.Document, err error) {
		if err != nil {
			r.logger.Error("Recipe subscription failed", "subscription", name, "error", err)
			metrics.SubscriptionSnapshots.WithLabelValues(name, "error").Inc()
			return
		}

		incoming := make([]models.Recipe, 0, len(docs))
		for _, doc := range docs {
			if rec, ok := r.decode(doc); ok {
				incoming = append(incoming, rec)
			}
		}

		r.mu.Lock()
		r.cache = MergeByID(r.cache, incoming)
		size := len(r.cache)
		r.mu.Unlock()

		metrics.RecipeCacheSize.Set(float64(size))
		metrics.SubscriptionSnapshots.WithLabelValues(name, "ok").Inc()
	}
}

func (r *Repository) upsert(rec models.Recipe) {
	r.mu.Lock()
	r.cache = upsert(r.cache, rec)
	size := len(r.cache)
	r.mu.Unlock()
	metrics.RecipeCacheSize.Set(float64(size))
}

// decode materializes a stored document, dropping it if it is malformed.
func (r *Repository) decode(doc storage.Document) (models.Recipe, bool) {
	var d models.RecipeDocument
	err := doc.DataTo(&d)
	if err != nil || !d.Acceptable() {
		r.logger.Debug("Dropping malformed recipe document", "recipe_id", doc.ID, "error", err)
		metrics.DroppedDocuments.Inc()
		return models.Recipe{}, false
	}
	return d.Recipe(doc.ID), true
}
