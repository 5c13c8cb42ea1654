package api

type SaveRecipeRequest struct {
	RecipeID string `json:"recipeId"`
}

type UnsaveRecipeRequest struct {
	RecipeID string `json:"recipeId"`
}

// SavedIDsResponse lists saved recipe ids, most recently saved first.
type SavedIDsResponse struct {
	RecipeIDs []string `json:"recipeIds"`
}

// RecipeBookResponse holds the saved recipes that could be resolved, in
// saved order.
type RecipeBookResponse struct {
	Recipes []Recipe `json:"recipes"`
}

type WatchSavedRequest struct {
	RecipeID string `json:"recipeId"`
}

type SavedState struct {
	RecipeID string `json:"recipeId"`
	Saved    bool   `json:"saved"`
}
