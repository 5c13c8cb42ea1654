// Package profile stores per-user settings such as screen name and theme.
package profile

import (
	"context"
	"fmt"

	"github.com/mmynk/scrtch/internal/middleware"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/internal/storage"
)

// Collection holds one profile document per user id.
const Collection = "users"

// Patch is a partial profile update. Nil fields are left unchanged.
type Patch struct {
	ScreenName *string
	Theme      *models.Theme
}

// Service reads and writes profiles.
type Service struct {
	store       storage.Store
	currentUser func(context.Context) string
}

// New creates a profile service over store.
func New(store storage.Store) *Service {
	return &Service{store: store, currentUser: middleware.GetUserID}
}

// Get returns uid's profile. A user who never saved one gets found=false and
// the default profile.
func (s *Service) Get(ctx context.Context, uid string) (models.UserProfile, bool, error) {
	if err := s.authorize(ctx, uid); err != nil {
		return models.UserProfile{}, false, err
	}

	doc, found, err := s.store.Get(ctx, Collection, uid)
	if err != nil {
		return models.UserProfile{}, false, fmt.Errorf("failed to get profile: %w: %w", models.ErrStoreUnavailable, err)
	}

	p := models.UserProfile{Theme: models.ThemeDark}
	if !found {
		return p, false, nil
	}
	if err := doc.DataTo(&p); err != nil {
		return models.UserProfile{}, false, err
	}
	if p.Theme == "" {
		p.Theme = models.ThemeDark
	}
	return p, true, nil
}

// Upsert merges patch into uid's profile, refreshing updatedAt and setting
// createdAt on the first write.
func (s *Service) Upsert(ctx context.Context, uid string, patch Patch) (models.UserProfile, error) {
	if err := s.authorize(ctx, uid); err != nil {
		return models.UserProfile{}, err
	}

	if patch.Theme != nil {
		if _, err := models.ParseTheme(string(*patch.Theme)); err != nil {
			return models.UserProfile{}, err
		}
	}

	_, exists, err := s.store.Get(ctx, Collection, uid)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to read profile: %w: %w", models.ErrStoreUnavailable, err)
	}

	fields := storage.Fields{"updatedAt": storage.ServerTimestamp}
	if !exists {
		fields["createdAt"] = storage.ServerTimestamp
	}
	if patch.ScreenName != nil {
		fields["screenName"] = *patch.ScreenName
	}
	if patch.Theme != nil {
		fields["theme"] = string(*patch.Theme)
	}

	if err := s.store.Merge(ctx, Collection, uid, fields); err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to save profile: %w: %w", models.ErrStoreUnavailable, err)
	}

	p, _, err := s.Get(ctx, uid)
	return p, err
}

func (s *Service) authorize(ctx context.Context, uid string) error {
	caller := s.currentUser(ctx)
	if caller == "" {
		return models.ErrUnauthenticated
	}
	if caller != uid {
		return models.ErrPermissionDenied
	}
	return nil
}
