package service

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/internal/profile"
	"github.com/mmynk/scrtch/pkg/api"
)

// ProfileService implements the ProfileService RPC interface for the
// caller's own profile.
type ProfileService struct {
	profiles *profile.Service
}

// NewProfileService creates a profile service.
func NewProfileService(profiles *profile.Service) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// GetProfile returns the caller's profile, or the default one before the
// first update.
func (s *ProfileService) GetProfile(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ProfileResponse], error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	p, found, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ProfileResponse{Found: found, Profile: toAPIProfile(p)}), nil
}

// UpdateProfile merges the set fields into the caller's profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, req *connect.Request[api.UpdateProfileRequest]) (*connect.Response[api.ProfileResponse], error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var patch profile.Patch
	if req.Msg.ScreenName != nil {
		name := strings.TrimSpace(*req.Msg.ScreenName)
		patch.ScreenName = &name
	}
	if req.Msg.Theme != nil {
		theme, err := models.ParseTheme(*req.Msg.Theme)
		if err != nil {
			return nil, invalidArgument(err)
		}
		patch.Theme = &theme
	}

	p, err := s.profiles.Upsert(ctx, uid, patch)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ProfileResponse{Found: true, Profile: toAPIProfile(p)}), nil
}
