package models

import (
	"encoding/json"
	"fmt"
)

// RecipeDocument is the stored shape of a recipe, keyed by recipe id.
// Optional fields carry omitempty so that absent values are left out of a
// write entirely instead of being stored as empty strings or nulls.
type RecipeDocument struct {
	Title           string       `json:"title" yaml:"title"`
	Description     string       `json:"description,omitempty" yaml:"description,omitempty"`
	AuthorName      string       `json:"authorName,omitempty" yaml:"authorName,omitempty"`
	Visibility      Visibility   `json:"visibility" yaml:"visibility"`
	Ingredients     []Ingredient `json:"ingredients" yaml:"ingredients"`
	Steps           []Step       `json:"steps" yaml:"steps"`
	Tags            []string     `json:"tags" yaml:"tags"`
	ServingsDefault int          `json:"servingsDefault" yaml:"servingsDefault"`

	ParentID   string `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	RootID     string `json:"rootId,omitempty" yaml:"rootId,omitempty"`
	ForkReason string `json:"forkReason,omitempty" yaml:"forkReason,omitempty"`

	OwnerID   string `json:"ownerId,omitempty" yaml:"ownerId,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty" yaml:"-"`
	UpdatedAt int64  `json:"updatedAt,omitempty" yaml:"-"`
}

// Acceptable reports whether the document has the minimum fields needed to
// show it: a title, a visibility and a positive default serving count.
// Anything else is treated as malformed and dropped by readers.
func (d RecipeDocument) Acceptable() bool {
	return d.Title != "" && d.Visibility != "" && d.ServingsDefault > 0
}

// Recipe materializes the document under the given id.
// Missing lists come back empty rather than nil.
func (d RecipeDocument) Recipe(id string) Recipe {
	r := Recipe{
		ID:              id,
		Title:           d.Title,
		Description:     d.Description,
		AuthorName:      d.AuthorName,
		Visibility:      d.Visibility,
		Ingredients:     d.Ingredients,
		Steps:           d.Steps,
		Tags:            d.Tags,
		ServingsDefault: d.ServingsDefault,
		ParentID:        d.ParentID,
		RootID:          d.RootID,
		ForkReason:      d.ForkReason,
		OwnerID:         d.OwnerID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	if r.Steps == nil {
		r.Steps = []Step{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r.Clone()
}

// NewRecipeDocument builds the writable document for r. Store-managed
// fields (owner and timestamps) are left out; the writer adds them.
func NewRecipeDocument(r Recipe) RecipeDocument {
	c := r.Clone()
	d := RecipeDocument{
		Title:           c.Title,
		Description:     c.Description,
		AuthorName:      c.AuthorName,
		Visibility:      c.Visibility,
		Ingredients:     c.Ingredients,
		Steps:           c.Steps,
		Tags:            c.Tags,
		ServingsDefault: c.ServingsDefault,
		ParentID:        c.ParentID,
		RootID:          c.RootID,
		ForkReason:      c.ForkReason,
	}
	if d.Ingredients == nil {
		d.Ingredients = []Ingredient{}
	}
	if d.Steps == nil {
		d.Steps = []Step{}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}

// Fields flattens the document into a field map suitable for a store write.
// Fields that are absent on the document do not appear in the map.
func (d RecipeDocument) Fields() (map[string]any, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipe document: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten recipe document: %w", err)
	}
	return fields, nil
}
