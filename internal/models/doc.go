// Package models defines the core domain models for scrtch.
//
// # Recipes
//
//   - Recipe: a recipe with ingredients, steps and fork lineage
//   - RecipeDocument: the stored shape of a recipe, plus the validation
//     predicate that decides whether a raw document is shown at all
//   - Ingredient, Step, StepTimer: the ordered parts of a recipe
//
// # Lineage
//
// A fork records its immediate ancestor in ParentID and the original at the
// top of the chain in RootID. RootID is fixed when the fork is created and is
// never recomputed. An original has neither; RootOf resolves it to its own id.
//
// # Users
//
//   - User: an identity provider account
//   - UserProfile: per-user settings (screen name, theme)
//   - SavedRecipe: a bookmark in a user's recipe book
//
// # Design Principles
//
// 1. **Empty means absent**: optional text fields use "" for "not set"
// 2. **No shared structure**: Clone deep-copies every slice so derived recipes never alias
// 3. **Avoid circular references**: relationships are id strings, never pointers
package models
