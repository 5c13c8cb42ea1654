package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/scrtch/internal/middleware"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/internal/storage"
	"github.com/mmynk/scrtch/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "recipes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestRepo(t *testing.T, store storage.Store, opts ...Option) *Repository {
	t.Helper()
	repo, err := New(store, append([]Option{WithSeed([]models.Recipe{})}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func signedIn(uid string) context.Context {
	return middleware.WithUser(context.Background(), uid, uid+"@example.com")
}

func toast(id string) models.Recipe {
	return models.Recipe{
		ID:              id,
		Title:           "Toast",
		Visibility:      models.VisibilityPublic,
		ServingsDefault: 1,
		Steps:           []models.Step{{Text: "Toast the bread"}},
	}
}

func ids(list []models.Recipe) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ID
	}
	return out
}

func TestSeeds(t *testing.T) {
	seeds, err := Seeds()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"cheesy-christmas-tree",
		"cinnamon-rolls-base",
		"cinnamon-rolls-lower-sugar-nutfree",
	}, ids(seeds))

	rolls := seeds[1]
	require.Len(t, rolls.Steps, 9)
	require.NotNil(t, rolls.Steps[7].Timer)
	assert.Equal(t, models.TimerIn, rolls.Steps[7].Timer.Kind)
	assert.Equal(t, 1200, rolls.Steps[7].Timer.Seconds)
	assert.Equal(t, models.TimerCountdown, rolls.Steps[6].Timer.EffectiveKind())
	assert.Equal(t, 2.25, *rolls.Ingredients[1].Amount)

	fork := seeds[2]
	assert.True(t, fork.IsFork())
	assert.Equal(t, "cinnamon-rolls-base", models.RootOf(fork))
}

func TestNew_DefaultSeeds(t *testing.T) {
	repo, err := New(newTestStore(t))
	require.NoError(t, err)
	defer repo.Close()

	assert.Len(t, repo.All(), 3)
	_, ok := repo.ByID("cheesy-christmas-tree")
	assert.True(t, ok)
}

func TestMergeByID(t *testing.T) {
	existing := []models.Recipe{toast("a"), toast("seed"), toast("b")}
	updated := toast("a")
	updated.Title = "Better Toast"
	incoming := []models.Recipe{toast("c"), updated}

	merged := MergeByID(existing, incoming)

	assert.Equal(t, []string{"a", "seed", "b", "c"}, ids(merged))
	assert.Equal(t, "Better Toast", merged[0].Title, "incoming wins")

	t.Run("idempotent", func(t *testing.T) {
		twice := MergeByID(merged, incoming)
		assert.Equal(t, merged, twice)
	})

	t.Run("no shared structure", func(t *testing.T) {
		merged[0].Steps[0].Text = "changed"
		assert.Equal(t, "Toast the bread", updated.Steps[0].Text)
	})
}

func TestUpsert(t *testing.T) {
	list := []models.Recipe{toast("a"), toast("b")}

	replaced := toast("b")
	replaced.Title = "Replaced"
	got := upsert(list, replaced)
	assert.Equal(t, []string{"a", "b"}, ids(got))
	assert.Equal(t, "Replaced", got[1].Title)
	assert.Equal(t, "Toast", list[1].Title, "input list is not modified")

	got = upsert(got, toast("new"))
	assert.Equal(t, []string{"new", "a", "b"}, ids(got))
}

func TestCreate(t *testing.T) {
	store := newTestStore(t)
	repo := newTestRepo(t, store)

	t.Run("requires sign in", func(t *testing.T) {
		_, err := repo.Create(context.Background(), toast("x"))
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		_, found, _ := store.Get(context.Background(), Collection, "x")
		assert.False(t, found)
	})

	t.Run("writes owner and timestamps, omits absent fields", func(t *testing.T) {
		id, err := repo.Create(signedIn("u1"), toast("toast-1"))
		require.NoError(t, err)
		assert.Equal(t, "toast-1", id)

		doc, found, err := store.Get(context.Background(), Collection, id)
		require.NoError(t, err)
		require.True(t, found)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(doc.Data, &fields))
		assert.Equal(t, "u1", fields["ownerId"])
		assert.IsType(t, float64(0), fields["createdAt"])
		assert.IsType(t, float64(0), fields["updatedAt"])
		for _, absent := range []string{"description", "authorName", "parentId", "rootId", "forkReason"} {
			assert.NotContains(t, fields, absent)
		}
	})

	t.Run("optimistic upsert", func(t *testing.T) {
		id, err := repo.Create(signedIn("u1"), toast(""))
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		cached, ok := repo.ByID(id)
		require.True(t, ok)
		assert.Equal(t, "u1", cached.OwnerID)
		assert.Equal(t, id, repo.All()[0].ID, "new recipes are prepended")
	})
}

func TestUpdate(t *testing.T) {
	store := newTestStore(t)
	repo := newTestRepo(t, store)
	ctx := signedIn("u1")

	t.Run("requires sign in", func(t *testing.T) {
		err := repo.Update(context.Background(), toast("a"))
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("missing recipe", func(t *testing.T) {
		err := repo.Update(ctx, toast("ghost"))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("patches and keeps owner", func(t *testing.T) {
		_, err := repo.Create(ctx, toast("a"))
		require.NoError(t, err)

		edited := toast("a")
		edited.Title = "Cinnamon Toast"
		edited.Tags = []string{"sweet"}
		require.NoError(t, repo.Update(ctx, edited))

		fresh, found, err := repo.Fetch(ctx, "a")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Cinnamon Toast", fresh.Title)
		assert.Equal(t, []string{"sweet"}, fresh.Tags)
		assert.Equal(t, "u1", fresh.OwnerID)
	})

	t.Run("empty optional fields keep their value", func(t *testing.T) {
		rec := toast("described")
		rec.Description = "Crisp"
		rec.AuthorName = "Pat"
		_, err := repo.Create(ctx, rec)
		require.NoError(t, err)

		edited := toast("described")
		edited.Title = "Burnt Toast"
		require.NoError(t, repo.Update(ctx, edited))

		cached, ok := repo.ByID("described")
		require.True(t, ok)
		assert.Equal(t, "Burnt Toast", cached.Title)
		assert.Equal(t, "Crisp", cached.Description)
		assert.Equal(t, "Pat", cached.AuthorName)

		stored, found, err := repo.Fetch(ctx, "described")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, cached.Description, stored.Description, "cache and store agree")
		assert.Equal(t, cached.AuthorName, stored.AuthorName)
	})
}

func TestFetch(t *testing.T) {
	store := newTestStore(t)
	repo := newTestRepo(t, store)
	ctx := context.Background()

	t.Run("absent is not an error", func(t *testing.T) {
		_, found, err := repo.Fetch(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("malformed documents are dropped", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, Collection, "bad", storage.Fields{"visibility": "public", "servingsDefault": 2}))
		_, found, err := repo.Fetch(ctx, "bad")
		require.NoError(t, err)
		assert.False(t, found)
		_, cached := repo.ByID("bad")
		assert.False(t, cached)
	})

	t.Run("hit is cached", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, Collection, "deep-link", storage.Fields{
			"title": "Soup", "visibility": "unlisted", "servingsDefault": 4,
		}))
		rec, found, err := repo.Fetch(ctx, "deep-link")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Soup", rec.Title)
		assert.Empty(t, rec.Steps)
		assert.NotNil(t, rec.Steps)

		_, cached := repo.ByID("deep-link")
		assert.True(t, cached)
	})
}

func TestStartListening(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	write := func(id string, fields storage.Fields) {
		t.Helper()
		fields["updatedAt"] = storage.ServerTimestamp
		require.NoError(t, store.Set(ctx, Collection, id, fields))
	}

	write("public-1", storage.Fields{"title": "Pie", "visibility": "public", "servingsDefault": 8, "ownerId": "u2"})
	write("mine-private", storage.Fields{"title": "Secret Stew", "visibility": "private", "servingsDefault": 4, "ownerId": "u1"})
	write("theirs-private", storage.Fields{"title": "Hidden", "visibility": "private", "servingsDefault": 4, "ownerId": "u2"})
	write("no-title", storage.Fields{"visibility": "public", "servingsDefault": 4})
	write("no-visibility", storage.Fields{"title": "Nope", "servingsDefault": 4, "ownerId": "u1"})
	write("no-servings", storage.Fields{"title": "Nope", "visibility": "public"})

	seed := toast("seed-only")
	repo := newTestRepo(t, store, WithSeed([]models.Recipe{seed}))

	uctx := signedIn("u1")
	require.NoError(t, repo.StartListening(uctx, ListenConfig{}))
	require.NoError(t, repo.StartListening(uctx, ListenConfig{}), "second start is a no-op")
	assert.True(t, repo.Listening("u1"))

	require.Eventually(t, func() bool {
		_, pub := repo.ByID("public-1")
		_, mine := repo.ByID("mine-private")
		return pub && mine
	}, 2*time.Second, 10*time.Millisecond, "both subscriptions feed the cache")

	for _, id := range []string{"theirs-private", "no-title", "no-visibility", "no-servings"} {
		_, ok := repo.ByID(id)
		assert.False(t, ok, "%s must not be cached", id)
	}
	_, ok := repo.ByID("seed-only")
	assert.True(t, ok, "local-only recipes are retained")

	t.Run("later writes arrive", func(t *testing.T) {
		write("public-2", storage.Fields{"title": "Tart", "visibility": "public", "servingsDefault": 6, "ownerId": "u3"})
		require.Eventually(t, func() bool {
			_, ok := repo.ByID("public-2")
			return ok
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("stop owner", func(t *testing.T) {
		repo.StopOwner("u1")
		assert.False(t, repo.Listening("u1"))
		assert.True(t, repo.Listening(""))
	})

	t.Run("stop all", func(t *testing.T) {
		repo.StopListening()
		assert.False(t, repo.Listening(""))
	})
}

func TestOwnerSubscriptionsIdleSweep(t *testing.T) {
	var mu sync.Mutex
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	repo := newTestRepo(t, newTestStore(t), WithClock(clock), WithOwnerIdleTimeout(time.Minute))

	for i := 0; i < 50; i++ {
		require.NoError(t, repo.StartListening(signedIn(fmt.Sprintf("user-%d", i)), ListenConfig{}))
	}
	assert.Equal(t, 50, repo.Owners())

	advance(45 * time.Second)
	require.NoError(t, repo.StartListening(signedIn("user-7"), ListenConfig{}), "listing again marks the subscription used")
	assert.Zero(t, repo.SweepOwners(), "nothing is idle yet")

	advance(30 * time.Second)
	assert.Equal(t, 49, repo.SweepOwners())
	assert.Equal(t, 1, repo.Owners())
	assert.True(t, repo.Listening("user-7"))
	assert.False(t, repo.Listening("user-0"))
	assert.True(t, repo.Listening(""), "the public subscription is never swept")

	repo.StopOwner("user-7")
	assert.Zero(t, repo.Owners())

	require.NoError(t, repo.StartListening(signedIn("user-0"), ListenConfig{}), "a swept user can listen again")
	assert.True(t, repo.Listening("user-0"))
}

func TestOwnerSubscriptionsRunStops(t *testing.T) {
	repo := newTestRepo(t, newTestStore(t), WithSweepInterval(5*time.Millisecond), WithOwnerIdleTimeout(time.Nanosecond))
	require.NoError(t, repo.StartListening(signedIn("u1"), ListenConfig{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		repo.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return repo.Owners() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStartListening_Anonymous(t *testing.T) {
	repo := newTestRepo(t, newTestStore(t))

	require.NoError(t, repo.StartListening(context.Background(), ListenConfig{}))
	assert.True(t, repo.Listening(""))
	assert.False(t, repo.Listening("u1"))

	require.NoError(t, repo.StartListening(signedIn("u1"), ListenConfig{PublicOnly: true}))
	assert.False(t, repo.Listening("u1"))
}

func TestStartListening_AfterClose(t *testing.T) {
	repo := newTestRepo(t, newTestStore(t))
	repo.Close()
	assert.Error(t, repo.StartListening(context.Background(), ListenConfig{}))
}

func TestResolveRoot(t *testing.T) {
	store := newTestStore(t)
	root := toast("root")
	repo := newTestRepo(t, store, WithSeed([]models.Recipe{root}))

	child := toast("child")
	child.ParentID = "root"
	child.RootID = "root"

	got, ok := repo.ResolveRoot(child)
	require.True(t, ok)
	assert.Equal(t, "root", got.ID)

	got, ok = repo.ResolveRoot(root)
	require.True(t, ok, "an original resolves to itself")
	assert.Equal(t, "root", got.ID)

	t.Run("load root from store", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, Collection, "remote-root", storage.Fields{
			"title": "Bread", "visibility": "public", "servingsDefault": 2,
		}))
		orphan := toast("orphan")
		orphan.RootID = "remote-root"

		_, ok := repo.ResolveRoot(orphan)
		assert.False(t, ok)

		got, found, err := repo.LoadRoot(ctx, orphan)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Bread", got.Title)
	})
}

func TestHydrate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := newTestRepo(t, store, WithSeed([]models.Recipe{toast("cached")}))

	require.NoError(t, store.Set(ctx, Collection, "stored", storage.Fields{
		"title": "Soup", "visibility": "public", "servingsDefault": 4,
	}))

	t.Run("keeps order and skips missing", func(t *testing.T) {
		got, err := repo.Hydrate(ctx, []string{"stored", "missing", "cached"})
		require.NoError(t, err)
		assert.Equal(t, []string{"stored", "cached"}, ids(got))
	})

	t.Run("cancelled hydration is discarded", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		got, err := repo.Hydrate(cctx, []string{"cached", "stored"})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Nil(t, got)
	})
}
