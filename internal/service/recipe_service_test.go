package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/scrtch/internal/fork"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/pkg/api"
	"google.golang.org/protobuf/types/known/emptypb"
)

func ptr[T any](v T) *T { return &v }

func newRecipe(title, visibility string) api.Recipe {
	return api.Recipe{
		Title:           title,
		Visibility:      visibility,
		ServingsDefault: 2,
		Ingredients:     []api.Ingredient{{Name: "Flour", Amount: ptr(500.0), Unit: "g"}},
		Steps: []api.Step{
			{Text: "Mix"},
			{Text: "Bake", Timer: &api.StepTimer{Label: "Bake", Seconds: 1800}},
		},
		Tags: []string{"bread"},
	}
}

func recipeIDs(rs []api.Recipe) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

func TestListRecipes_Seeds(t *testing.T) {
	env := setupTestServer(t)

	resp, err := env.recipes.ListRecipes(context.Background(), connect.NewRequest(&api.ListRecipesRequest{}))
	require.NoError(t, err)

	ids := recipeIDs(resp.Msg.Recipes)
	assert.Contains(t, ids, "cheesy-christmas-tree")
	assert.Contains(t, ids, "cinnamon-rolls-base")
	assert.Contains(t, ids, "cinnamon-rolls-lower-sugar-nutfree")
	assert.True(t, env.repo.Listening(""), "first listing starts the public subscription")
}

func TestGetRecipe(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	t.Run("fork resolves its root", func(t *testing.T) {
		resp, err := env.recipes.GetRecipe(ctx, connect.NewRequest(&api.GetRecipeRequest{ID: "cinnamon-rolls-lower-sugar-nutfree"}))
		require.NoError(t, err)
		require.True(t, resp.Msg.Found)
		assert.Equal(t, "cinnamon-rolls-base", resp.Msg.Recipe.RootID)
		require.NotNil(t, resp.Msg.Root)
		assert.Equal(t, "cinnamon-rolls-base", resp.Msg.Root.ID)
	})

	t.Run("original is its own root", func(t *testing.T) {
		resp, err := env.recipes.GetRecipe(ctx, connect.NewRequest(&api.GetRecipeRequest{ID: "cheesy-christmas-tree"}))
		require.NoError(t, err)
		require.NotNil(t, resp.Msg.Root)
		assert.Equal(t, "cheesy-christmas-tree", resp.Msg.Root.ID)
	})

	t.Run("unknown id is not an error", func(t *testing.T) {
		resp, err := env.recipes.GetRecipe(ctx, connect.NewRequest(&api.GetRecipeRequest{ID: "nonexistent-id"}))
		require.NoError(t, err)
		assert.False(t, resp.Msg.Found)
		assert.Nil(t, resp.Msg.Recipe)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := env.recipes.GetRecipe(ctx, connect.NewRequest(&api.GetRecipeRequest{}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("scaled servings", func(t *testing.T) {
		resp, err := env.recipes.GetRecipe(ctx, connect.NewRequest(&api.GetRecipeRequest{ID: "cinnamon-rolls-base", Servings: 6}))
		require.NoError(t, err)
		r := resp.Msg.Recipe
		assert.Equal(t, 6, r.ServingsDefault)
		require.Equal(t, "Whole milk", r.Ingredients[0].Name)
		assert.InDelta(t, 0.25, *r.Ingredients[0].Amount, 1e-9)
		assert.Equal(t, 12, resp.Msg.Root.ServingsDefault, "root is not scaled")
	})
}

func TestCreateRecipe(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.token(t, "alice")

	t.Run("requires sign in", func(t *testing.T) {
		_, err := env.recipes.CreateRecipe(ctx, connect.NewRequest(&api.CreateRecipeRequest{Recipe: newRecipe("Loaf", "")}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("validates", func(t *testing.T) {
		bad := newRecipe("", "public")
		_, err := env.recipes.CreateRecipe(ctx, as(alice, &api.CreateRecipeRequest{Recipe: bad}))
		assertCode(t, err, connect.CodeInvalidArgument)

		bad = newRecipe("Loaf", "secret")
		_, err = env.recipes.CreateRecipe(ctx, as(alice, &api.CreateRecipeRequest{Recipe: bad}))
		assertCode(t, err, connect.CodeInvalidArgument)

		bad = newRecipe("Loaf", "public")
		bad.Steps[1].Timer.Kind = "later"
		_, err = env.recipes.CreateRecipe(ctx, as(alice, &api.CreateRecipeRequest{Recipe: bad}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("private by default and owned by caller", func(t *testing.T) {
		in := newRecipe("Loaf", "")
		in.ID = "client-chosen"
		in.ParentID = "smuggled"

		resp, err := env.recipes.CreateRecipe(ctx, as(alice, &api.CreateRecipeRequest{Recipe: in}))
		require.NoError(t, err)

		r := resp.Msg.Recipe
		assert.NotEmpty(t, r.ID)
		assert.NotEqual(t, "client-chosen", r.ID)
		assert.Empty(t, r.ParentID)
		assert.Equal(t, "private", r.Visibility)
		assert.Equal(t, "alice", r.OwnerID)
		assert.Equal(t, "countdown", r.Steps[1].Timer.Kind)

		stored, found, err := env.repo.Fetch(ctx, r.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Loaf", stored.Title)
		assert.NotZero(t, stored.CreatedAt)
	})
}

func TestRecipeVisibility(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice, bob := env.token(t, "alice"), env.token(t, "bob")

	resp, err := env.recipes.CreateRecipe(ctx, as(alice, &api.CreateRecipeRequest{Recipe: newRecipe("Secret Sauce", "private")}))
	require.NoError(t, err)
	id := resp.Msg.Recipe.ID

	got, err := env.recipes.GetRecipe(ctx, as(bob, &api.GetRecipeRequest{ID: id}))
	require.NoError(t, err)
	assert.False(t, got.Msg.Found, "private recipes are hidden from other users")

	got, err = env.recipes.GetRecipe(ctx, as(alice, &api.GetRecipeRequest{ID: id}))
	require.NoError(t, err)
	assert.True(t, got.Msg.Found)

	list, err := env.recipes.ListRecipes(ctx, as(bob, &api.ListRecipesRequest{}))
	require.NoError(t, err)
	assert.NotContains(t, recipeIDs(list.Msg.Recipes), id)

	list, err = env.recipes.ListRecipes(ctx, as(alice, &api.ListRecipesRequest{}))
	require.NoError(t, err)
	assert.Contains(t, recipeIDs(list.Msg.Recipes), id)
	assert.True(t, env.repo.Listening("alice"))
}

func TestUpdateRecipe(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice, bob := env.token(t, "alice"), env.token(t, "bob")

	created, err := env.recipes.CreateRecipe(ctx, as(alice, &api.CreateRecipeRequest{Recipe: newRecipe("Loaf", "public")}))
	require.NoError(t, err)
	id := created.Msg.Recipe.ID

	edit := newRecipe("Better Loaf", "public")
	edit.ID = id

	t.Run("other users cannot edit", func(t *testing.T) {
		_, err := env.recipes.UpdateRecipe(ctx, as(bob, &api.UpdateRecipeRequest{Recipe: edit}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("seeds cannot be edited", func(t *testing.T) {
		seed := newRecipe("Tree", "public")
		seed.ID = "cheesy-christmas-tree"
		_, err := env.recipes.UpdateRecipe(ctx, as(alice, &api.UpdateRecipeRequest{Recipe: seed}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		missing := newRecipe("Ghost", "public")
		missing.ID = "nonexistent-id"
		_, err := env.recipes.UpdateRecipe(ctx, as(alice, &api.UpdateRecipeRequest{Recipe: missing}))
		assertCode(t, err, connect.CodeNotFound)
	})

	t.Run("owner edits", func(t *testing.T) {
		resp, err := env.recipes.UpdateRecipe(ctx, as(alice, &api.UpdateRecipeRequest{Recipe: edit}))
		require.NoError(t, err)
		assert.Equal(t, "Better Loaf", resp.Msg.Recipe.Title)
		assert.Equal(t, "alice", resp.Msg.Recipe.OwnerID)

		stored, _, err := env.repo.Fetch(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Better Loaf", stored.Title)
		assert.GreaterOrEqual(t, stored.UpdatedAt, stored.CreatedAt)
	})
}

func TestForkRecipe(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.token(t, "alice")

	t.Run("requires sign in", func(t *testing.T) {
		_, err := env.recipes.ForkRecipe(ctx, connect.NewRequest(&api.ForkRecipeRequest{SourceID: "cheesy-christmas-tree"}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("branch fork keeps lineage and is saved", func(t *testing.T) {
		resp, err := env.recipes.ForkRecipe(ctx, as(alice, &api.ForkRecipeRequest{
			SourceID:  "cinnamon-rolls-lower-sugar-nutfree",
			Overrides: api.ForkOverrides{ForkReason: ptr("Even less sugar")},
		}))
		require.NoError(t, err)

		r := resp.Msg.Recipe
		assert.Equal(t, "cinnamon-rolls-lower-sugar-nutfree", r.ParentID)
		assert.Equal(t, "cinnamon-rolls-base", r.RootID)
		assert.Equal(t, "Cinnamon Rolls (Lower Sugar, Nut-Free)", r.Title, "title is never changed")
		assert.Equal(t, "private", r.Visibility)
		assert.Equal(t, "Even less sugar", r.ForkReason)
		assert.Equal(t, "alice", r.OwnerID)
		assert.Contains(t, r.ID, "cinnamon-rolls-lower-sugar-nutfree-fork-")

		saved, err := env.saved.ListSavedIDs(ctx, as(alice, &emptypb.Empty{}))
		require.NoError(t, err)
		assert.Equal(t, []string{r.ID}, saved.Msg.RecipeIDs)
	})

	t.Run("original fork starts from the root", func(t *testing.T) {
		resp, err := env.recipes.ForkRecipe(ctx, as(alice, &api.ForkRecipeRequest{
			SourceID: "cinnamon-rolls-lower-sugar-nutfree",
			Choice:   string(fork.ChoiceOriginal),
		}))
		require.NoError(t, err)

		r := resp.Msg.Recipe
		assert.Equal(t, "cinnamon-rolls-base", r.ParentID)
		assert.Equal(t, "cinnamon-rolls-base", r.RootID)
		assert.Equal(t, "Cinnamon Rolls (Base Recipe)", r.Title)
		assert.Equal(t, fork.DefaultReason, r.ForkReason)
	})

	t.Run("original fork with an unresolvable root", func(t *testing.T) {
		id, err := env.repo.Create(withUser("alice"), models.Recipe{
			Title:           "Orphan",
			Visibility:      models.VisibilityPublic,
			ServingsDefault: 1,
			ParentID:        "deleted-parent",
			RootID:          "deleted-root",
		})
		require.NoError(t, err)

		_, err = env.recipes.ForkRecipe(ctx, as(alice, &api.ForkRecipeRequest{SourceID: id, Choice: "original"}))
		assertCode(t, err, connect.CodeFailedPrecondition)

		resp, err := env.recipes.ForkRecipe(ctx, as(alice, &api.ForkRecipeRequest{SourceID: id}))
		require.NoError(t, err, "branch forks do not need the root")
		assert.Equal(t, "deleted-root", resp.Msg.Recipe.RootID)
	})

	t.Run("bad input", func(t *testing.T) {
		_, err := env.recipes.ForkRecipe(ctx, as(alice, &api.ForkRecipeRequest{SourceID: "cheesy-christmas-tree", Choice: "sideways"}))
		assertCode(t, err, connect.CodeInvalidArgument)

		_, err = env.recipes.ForkRecipe(ctx, as(alice, &api.ForkRecipeRequest{
			SourceID:  "cheesy-christmas-tree",
			Overrides: api.ForkOverrides{ServingsDefault: ptr(0)},
		}))
		assertCode(t, err, connect.CodeInvalidArgument)

		_, err = env.recipes.ForkRecipe(ctx, as(alice, &api.ForkRecipeRequest{SourceID: "nonexistent-id"}))
		assertCode(t, err, connect.CodeNotFound)
	})
}
