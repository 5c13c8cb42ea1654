package api

// Recipe is the wire form of a recipe.
type Recipe struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	AuthorName      string       `json:"authorName,omitempty"`
	Visibility      string       `json:"visibility"`
	Ingredients     []Ingredient `json:"ingredients"`
	Steps           []Step       `json:"steps"`
	Tags            []string     `json:"tags"`
	ServingsDefault int          `json:"servingsDefault"`
	ParentID        string       `json:"parentId,omitempty"`
	RootID          string       `json:"rootId,omitempty"`
	ForkReason      string       `json:"forkReason,omitempty"`
	OwnerID         string       `json:"ownerId,omitempty"`
	CreatedAt       *Timestamp   `json:"createdAt,omitempty"`
	UpdatedAt       *Timestamp   `json:"updatedAt,omitempty"`
}

type Ingredient struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	Note   string   `json:"note,omitempty"`
}

type Step struct {
	Text  string     `json:"text"`
	Timer *StepTimer `json:"timer,omitempty"`
}

type StepTimer struct {
	Label   string `json:"label"`
	Seconds int    `json:"seconds"`
	Kind    string `json:"kind,omitempty"`
}

type ListRecipesRequest struct{}

type ListRecipesResponse struct {
	Recipes []Recipe `json:"recipes"`
}

// GetRecipeRequest reads one recipe. A positive Servings scales the
// returned ingredient amounts to that many servings.
type GetRecipeRequest struct {
	ID       string `json:"id"`
	Servings int    `json:"servings,omitempty"`
}

// GetRecipeResponse carries Found=false, not an error, for unknown or
// unreadable ids. Root is the original of the fork chain when it resolves;
// for an original it is the recipe itself.
type GetRecipeResponse struct {
	Found  bool    `json:"found"`
	Recipe *Recipe `json:"recipe,omitempty"`
	Root   *Recipe `json:"root,omitempty"`
}

type CreateRecipeRequest struct {
	Recipe Recipe `json:"recipe"`
}

type CreateRecipeResponse struct {
	Recipe Recipe `json:"recipe"`
}

type UpdateRecipeRequest struct {
	Recipe Recipe `json:"recipe"`
}

type UpdateRecipeResponse struct {
	Recipe Recipe `json:"recipe"`
}

// ForkOverrides replaces fields of the fork. Nil fields keep the base
// recipe's value.
type ForkOverrides struct {
	Title           *string  `json:"title,omitempty"`
	Description     *string  `json:"description,omitempty"`
	AuthorName      *string  `json:"authorName,omitempty"`
	Visibility      *string  `json:"visibility,omitempty"`
	ServingsDefault *int     `json:"servingsDefault,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	ForkReason      *string  `json:"forkReason,omitempty"`
}

// ForkRecipeRequest forks SourceID. Choice is "branch" (default) or
// "original".
type ForkRecipeRequest struct {
	SourceID  string        `json:"sourceId"`
	Choice    string        `json:"choice,omitempty"`
	Overrides ForkOverrides `json:"overrides"`
}

type ForkRecipeResponse struct {
	Recipe Recipe `json:"recipe"`
}
