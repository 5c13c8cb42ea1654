package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/scrtch/internal/ledger"
	"github.com/mmynk/scrtch/internal/middleware"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/internal/recipes"
	"github.com/mmynk/scrtch/pkg/api"
)

// SavedService implements the SavedService RPC interface. Every call acts
// on the caller's own recipe book.
type SavedService struct {
	ledger *ledger.Ledger
	repo   *recipes.Repository
	logger *slog.Logger
}

// NewSavedService creates a saved-recipes service.
func NewSavedService(ledger *ledger.Ledger, repo *recipes.Repository, logger *slog.Logger) *SavedService {
	return &SavedService{ledger: ledger, repo: repo, logger: logger}
}

// SaveRecipe bookmarks a recipe. Saving twice keeps one bookmark.
func (s *SavedService) SaveRecipe(ctx context.Context, req *connect.Request[api.SaveRecipeRequest]) (*connect.Response[emptypb.Empty], error) {
	if req.Msg.RecipeID == "" {
		return nil, invalidArgument(errors.New("recipeId is required"))
	}
	if err := s.ledger.Save(ctx, middleware.GetUserID(ctx), req.Msg.RecipeID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// UnsaveRecipe removes a bookmark. Removing a missing bookmark succeeds.
func (s *SavedService) UnsaveRecipe(ctx context.Context, req *connect.Request[api.UnsaveRecipeRequest]) (*connect.Response[emptypb.Empty], error) {
	if req.Msg.RecipeID == "" {
		return nil, invalidArgument(errors.New("recipeId is required"))
	}
	if err := s.ledger.Unsave(ctx, middleware.GetUserID(ctx), req.Msg.RecipeID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// ListSavedIDs returns the caller's saved ids, most recently saved first.
func (s *SavedService) ListSavedIDs(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.SavedIDsResponse], error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.ledger.SavedIDs(ctx, uid)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.SavedIDsResponse{RecipeIDs: ids}), nil
}

// GetRecipeBook returns the caller's saved recipes in saved order. Saved
// ids that no longer resolve, or are no longer readable, are skipped.
func (s *SavedService) GetRecipeBook(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.RecipeBookResponse], error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.ledger.SavedIDs(ctx, uid)
	if err != nil {
		return nil, toConnectError(err)
	}

	hydrated, err := s.repo.Hydrate(ctx, ids)
	if err != nil {
		return nil, toConnectError(err)
	}
	book := make([]models.Recipe, 0, len(hydrated))
	for _, r := range hydrated {
		if r.VisibleTo(uid) {
			book = append(book, r)
		}
	}

	return connect.NewResponse(&api.RecipeBookResponse{Recipes: toAPIRecipes(book)}), nil
}

// WatchSaved streams whether the caller has saved a recipe: once on
// subscribe and again on every change, until the client goes away.
func (s *SavedService) WatchSaved(ctx context.Context, req *connect.Request[api.WatchSavedRequest], stream *connect.ServerStream[api.SavedState]) error {
	uid, err := callerID(ctx)
	if err != nil {
		return err
	}
	rid := req.Msg.RecipeID
	if rid == "" {
		return invalidArgument(errors.New("recipeId is required"))
	}

	updates := make(chan bool, 1)
	sub, err := s.ledger.WatchSaved(ctx, uid, rid, func(saved bool) {
		select {
		case updates <- saved:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return toConnectError(err)
	}
	defer sub.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case saved := <-updates:
			if err := stream.Send(&api.SavedState{RecipeID: rid, Saved: saved}); err != nil {
				return err
			}
		}
	}
}

// WatchSavedIDs streams the caller's saved ids after every change.
func (s *SavedService) WatchSavedIDs(ctx context.Context, req *connect.Request[emptypb.Empty], stream *connect.ServerStream[api.SavedIDsResponse]) error {
	uid, err := callerID(ctx)
	if err != nil {
		return err
	}

	updates := make(chan []string, 1)
	sub, err := s.ledger.WatchSavedIDs(ctx, uid, func(ids []string) {
		select {
		case updates <- ids:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return toConnectError(err)
	}
	defer sub.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ids := <-updates:
			if err := stream.Send(&api.SavedIDsResponse{RecipeIDs: ids}); err != nil {
				return err
			}
		}
	}
}

// callerID returns the signed-in user or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	uid := middleware.GetUserID(ctx)
	if uid == "" {
		return "", toConnectError(models.ErrUnauthenticated)
	}
	return uid, nil
}
