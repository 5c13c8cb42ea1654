package profile

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/scrtch/internal/middleware"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/internal/storage/sqlite"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func ptr[T any](v T) *T { return &v }

func TestProfile(t *testing.T) {
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	store, err := sqlite.New(filepath.Join(t.TempDir(), "profile.db"), sqlite.WithClock(clock.Now))
	require.NoError(t, err)
	defer store.Close()

	svc := New(store)
	ctx := middleware.WithUser(context.Background(), "u1", "u1@example.com")

	t.Run("requires the owner", func(t *testing.T) {
		_, _, err := svc.Get(context.Background(), "u1")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		_, err = svc.Upsert(ctx, "u2", Patch{ScreenName: ptr("x")})
		assert.ErrorIs(t, err, models.ErrPermissionDenied)
	})

	t.Run("default before first save", func(t *testing.T) {
		p, found, err := svc.Get(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, models.ThemeDark, p.Theme)
	})

	var created int64
	t.Run("first write sets createdAt", func(t *testing.T) {
		p, err := svc.Upsert(ctx, "u1", Patch{ScreenName: ptr("Pat")})
		require.NoError(t, err)
		assert.Equal(t, "Pat", p.ScreenName)
		assert.Equal(t, models.ThemeDark, p.Theme)
		assert.NotZero(t, p.CreatedAt)
		assert.Equal(t, p.CreatedAt, p.UpdatedAt)
		created = p.CreatedAt
	})

	t.Run("later writes merge and keep createdAt", func(t *testing.T) {
		p, err := svc.Upsert(ctx, "u1", Patch{Theme: ptr(models.ThemeLight)})
		require.NoError(t, err)
		assert.Equal(t, "Pat", p.ScreenName)
		assert.Equal(t, models.ThemeLight, p.Theme)
		assert.Equal(t, created, p.CreatedAt)
		assert.Greater(t, p.UpdatedAt, created)

		doc, _, err := store.Get(context.Background(), Collection, "u1")
		require.NoError(t, err)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(doc.Data, &raw))
		assert.Len(t, raw, 4)
	})

	t.Run("unknown theme", func(t *testing.T) {
		_, err := svc.Upsert(ctx, "u1", Patch{Theme: ptr(models.Theme("sepia"))})
		assert.Error(t, err)
	})
}
