package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/scrtch/internal/calculator"
	"github.com/mmynk/scrtch/internal/fork"
	"github.com/mmynk/scrtch/internal/ledger"
	"github.com/mmynk/scrtch/internal/middleware"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/internal/recipes"
	"github.com/mmynk/scrtch/pkg/api"
)

// RecipeService implements the RecipeService RPC interface over the shared
// recipe repository.
type RecipeService struct {
	repo   *recipes.Repository
	ledger *ledger.Ledger
	listen recipes.ListenConfig
	logger *slog.Logger
}

// NewRecipeService creates a recipe service. listen decides which live
// subscriptions a caller's first listing opens.
func NewRecipeService(repo *recipes.Repository, ledger *ledger.Ledger, listen recipes.ListenConfig, logger *slog.Logger) *RecipeService {
	return &RecipeService{repo: repo, ledger: ledger, listen: listen, logger: logger}
}

// ListRecipes returns the cached recipes the caller may browse: seeds,
// public recipes and the caller's own. The first call for a caller starts
// the live subscriptions that keep the cache current.
func (s *RecipeService) ListRecipes(ctx context.Context, req *connect.Request[api.ListRecipesRequest]) (*connect.Response[api.ListRecipesResponse], error) {
	uid := middleware.GetUserID(ctx)
	if err := s.repo.StartListening(ctx, s.listen); err != nil {
		s.logger.Warn("Failed to start recipe subscriptions", "user_id", uid, "error", err)
	}

	all := s.repo.All()
	listed := make([]models.Recipe, 0, len(all))
	for _, r := range all {
		if r.ListedFor(uid) {
			listed = append(listed, r)
		}
	}

	return connect.NewResponse(&api.ListRecipesResponse{Recipes: toAPIRecipes(listed)}), nil
}

// GetRecipe returns a recipe and the original of its fork chain.
func (s *RecipeService) GetRecipe(ctx context.Context, req *connect.Request[api.GetRecipeRequest]) (*connect.Response[api.GetRecipeResponse], error) {
	if req.Msg.ID == "" {
		return nil, invalidArgument(errors.New("id is required"))
	}
	if req.Msg.Servings < 0 {
		return nil, invalidArgument(errors.New("servings must be positive"))
	}
	uid := middleware.GetUserID(ctx)

	rec, found, err := s.repo.Load(ctx, req.Msg.ID)
	if err != nil {
		s.logger.Error("Failed to load recipe", "recipe_id", req.Msg.ID, "error", err)
		return nil, toConnectError(err)
	}
	if !found || !rec.VisibleTo(uid) {
		return connect.NewResponse(&api.GetRecipeResponse{Found: false}), nil
	}

	shown := rec
	if req.Msg.Servings > 0 {
		scaled, err := calculator.ScaleRecipe(rec, req.Msg.Servings)
		if err != nil {
			return nil, invalidArgument(err)
		}
		shown = scaled
	}

	out := toAPIRecipe(shown)
	resp := &api.GetRecipeResponse{Found: true, Recipe: &out}

	root, ok, err := s.repo.LoadRoot(ctx, rec)
	if err != nil {
		s.logger.Warn("Failed to load root recipe", "recipe_id", rec.ID, "root_id", models.RootOf(rec), "error", err)
	} else if ok && root.VisibleTo(uid) {
		rootOut := toAPIRecipe(root)
		resp.Root = &rootOut
	}

	return connect.NewResponse(resp), nil
}

// CreateRecipe stores a new original recipe owned by the caller.
func (s *RecipeService) CreateRecipe(ctx context.Context, req *connect.Request[api.CreateRecipeRequest]) (*connect.Response[api.CreateRecipeResponse], error) {
	rec, err := fromAPIRecipe(req.Msg.Recipe)
	if err != nil {
		return nil, invalidArgument(err)
	}
	rec.ID = ""
	rec.ForkReason = ""

	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		s.logger.Error("Failed to create recipe", "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Recipe created", "recipe_id", id, "user_id", middleware.GetUserID(ctx))
	return connect.NewResponse(&api.CreateRecipeResponse{Recipe: s.cached(id, rec)}), nil
}

// UpdateRecipe replaces the content of one of the caller's recipes. Lineage
// and ownership cannot be changed.
func (s *RecipeService) UpdateRecipe(ctx context.Context, req *connect.Request[api.UpdateRecipeRequest]) (*connect.Response[api.UpdateRecipeResponse], error) {
	uid := middleware.GetUserID(ctx)
	if uid == "" {
		return nil, toConnectError(models.ErrUnauthenticated)
	}
	if req.Msg.Recipe.ID == "" {
		return nil, invalidArgument(errors.New("recipe id is required"))
	}

	rec, err := fromAPIRecipe(req.Msg.Recipe)
	if err != nil {
		return nil, invalidArgument(err)
	}

	existing, found, err := s.repo.Load(ctx, rec.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !found || !existing.VisibleTo(uid) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("recipe not found"))
	}
	if existing.OwnerID != uid {
		return nil, toConnectError(models.ErrPermissionDenied)
	}

	rec.ParentID = existing.ParentID
	rec.RootID = existing.RootID
	rec.OwnerID = existing.OwnerID
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = existing.UpdatedAt
	if rec.ForkReason == "" {
		rec.ForkReason = existing.ForkReason
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		s.logger.Error("Failed to update recipe", "recipe_id", rec.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Recipe updated", "recipe_id", rec.ID, "user_id", uid)
	return connect.NewResponse(&api.UpdateRecipeResponse{Recipe: s.cached(rec.ID, rec)}), nil
}

// ForkRecipe creates a private copy of a recipe (or of its original) owned
// by the caller and saves it to the caller's recipe book.
func (s *RecipeService) ForkRecipe(ctx context.Context, req *connect.Request[api.ForkRecipeRequest]) (*connect.Response[api.ForkRecipeResponse], error) {
	uid := middleware.GetUserID(ctx)
	if uid == "" {
		return nil, toConnectError(models.ErrUnauthenticated)
	}
	if req.Msg.SourceID == "" {
		return nil, invalidArgument(errors.New("sourceId is required"))
	}

	choice, err := fork.ParseChoice(req.Msg.Choice)
	if err != nil {
		return nil, invalidArgument(err)
	}
	overrides, err := fromAPIOverrides(req.Msg.Overrides)
	if err != nil {
		return nil, invalidArgument(err)
	}

	source, found, err := s.repo.Load(ctx, req.Msg.SourceID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !found || !source.VisibleTo(uid) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("recipe not found"))
	}

	opts := fork.Options{Choice: choice, Overrides: overrides}
	if choice == fork.ChoiceOriginal {
		root, ok, err := s.repo.LoadRoot(ctx, source)
		if err != nil {
			return nil, toConnectError(err)
		}
		if !ok || !root.VisibleTo(uid) {
			return nil, toConnectError(models.ErrInvalidForkTarget)
		}
		opts.Original = &root
	}

	forked := fork.Recipe(source, opts)
	id, err := s.repo.Create(ctx, forked)
	if err != nil {
		s.logger.Error("Failed to create fork", "source_id", source.ID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.ledger.Save(ctx, uid, id); err != nil {
		s.logger.Warn("Fork created but not saved", "recipe_id", id, "user_id", uid, "error", err)
	}

	s.logger.Info("Recipe forked", "recipe_id", id, "parent_id", forked.ParentID, "root_id", forked.RootID, "choice", string(choice))
	return connect.NewResponse(&api.ForkRecipeResponse{Recipe: s.cached(id, forked)}), nil
}

// cached returns the repository's copy of id, falling back to rec.
func (s *RecipeService) cached(id string, rec models.Recipe) api.Recipe {
	if r, ok := s.repo.ByID(id); ok {
		return toAPIRecipe(r)
	}
	rec.ID = id
	return toAPIRecipe(rec)
}
