package models

import "fmt"

// Visibility controls whether a recipe shows up in public listings.
// It is not enforced here; the store's access layer decides who can read what.
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPublic   Visibility = "public"
)

// ParseVisibility converts a wire value into a Visibility.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(s); v {
	case VisibilityPrivate, VisibilityUnlisted, VisibilityPublic:
		return v, nil
	default:
		return "", fmt.Errorf("unknown visibility: %q", s)
	}
}

// TimerKind distinguishes a blocking countdown from a "start later" hint.
type TimerKind string

const (
	// TimerCountdown is a regular countdown that runs while the step is done.
	TimerCountdown TimerKind = "countdown"
	// TimerIn is a "start in N minutes" suggestion, e.g. "start icing in 20 minutes".
	TimerIn TimerKind = "in"
)

// Recipe is a versioned recipe document.
type Recipe struct {
	// ID is the stable identifier. Immutable after creation.
	ID string

	// Title is the display title. Forks keep their ancestor's title.
	Title string

	// Description is optional display text.
	Description string

	// AuthorName is optional display text, e.g. "Breanna (imported)".
	AuthorName string

	// Visibility controls listing inclusion.
	Visibility Visibility

	// Ingredients in display order.
	Ingredients []Ingredient

	// Steps in document order. Make Mode indexes them 0..N-1.
	Steps []Step

	// Tags in display order. Order carries no meaning for logic.
	Tags []string

	// ServingsDefault is always positive for a valid recipe.
	ServingsDefault int

	// ParentID is the immediate ancestor this recipe was forked from.
	// Empty means the recipe is an original.
	ParentID string

	// RootID is the original ancestor of the fork chain, fixed at fork time.
	// Empty on originals; use RootOf to resolve it.
	RootID string

	// ForkReason explains what the fork changes.
	ForkReason string

	// OwnerID is the user that created the document. Empty for built-in seeds.
	OwnerID string

	// CreatedAt and UpdatedAt are store-managed unix milliseconds.
	// Zero until the store has reported them back.
	CreatedAt int64
	UpdatedAt int64
}

// Ingredient is a single line of the ingredient list.
type Ingredient struct {
	Name string `json:"name" yaml:"name"`

	// Amount is optional; nil means "no quantity given".
	Amount *float64 `json:"amount,omitempty" yaml:"amount,omitempty"`

	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Step is one cooking step with an optional timer.
type Step struct {
	Text  string     `json:"text" yaml:"text"`
	Timer *StepTimer `json:"timer,omitempty" yaml:"timer,omitempty"`
}

// StepTimer is the timer suggested for a step.
type StepTimer struct {
	Label string `json:"label" yaml:"label"`

	// Seconds is the countdown length, always positive.
	Seconds int `json:"seconds" yaml:"seconds"`

	// Kind defaults to TimerCountdown when empty.
	Kind TimerKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// EffectiveKind returns the timer kind with the countdown default applied.
func (t StepTimer) EffectiveKind() TimerKind {
	if t.Kind == "" {
		return TimerCountdown
	}
	return t.Kind
}

// RootOf returns the id of the root of r's fork chain.
// An original is its own root.
func RootOf(r Recipe) string {
	if r.RootID != "" {
		return r.RootID
	}
	return r.ID
}

// IsFork reports whether r was derived from another recipe.
func (r Recipe) IsFork() bool {
	return r.ParentID != ""
}

// Clone returns a deep copy of r. The copy shares no slices or pointers
// with r, so edits to one never show up in the other.
func (r Recipe) Clone() Recipe {
	out := r

	if r.Ingredients != nil {
		out.Ingredients = make([]Ingredient, len(r.Ingredients))
		for i, ing := range r.Ingredients {
			if ing.Amount != nil {
				amount := *ing.Amount
				ing.Amount = &amount
			}
			out.Ingredients[i] = ing
		}
	}

	if r.Steps != nil {
		out.Steps = make([]Step, len(r.Steps))
		for i, step := range r.Steps {
			if step.Timer != nil {
				timer := *step.Timer
				step.Timer = &timer
			}
			out.Steps[i] = step
		}
	}

	if r.Tags != nil {
		out.Tags = make([]string, len(r.Tags))
		copy(out.Tags, r.Tags)
	}

	return out
}

// VisibleTo reports whether userID may read r. Public and unlisted recipes
// are readable by anyone with the id; private ones only by their owner.
// Seeds have no owner and are always readable.
func (r Recipe) VisibleTo(userID string) bool {
	if r.Visibility != VisibilityPrivate || r.OwnerID == "" {
		return true
	}
	return userID != "" && r.OwnerID == userID
}

// ListedFor reports whether r belongs in userID's recipe listing.
func (r Recipe) ListedFor(userID string) bool {
	if r.OwnerID == "" || r.Visibility == VisibilityPublic {
		return true
	}
	return userID != "" && r.OwnerID == userID
}
