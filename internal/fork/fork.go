// Package fork derives new recipes from existing ones and fixes their lineage.
//
// Forking never touches the title: forks look like originals by name and are
// told apart only by ParentID and RootID.
package fork

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/scrtch/internal/models"
)

// DefaultReason is the fork reason used when the caller supplies none.
const DefaultReason = "Forked in Scrtch"

// Choice selects which recipe a fork is based on.
type Choice string

const (
	// ChoiceBranch forks the recipe currently being viewed.
	ChoiceBranch Choice = "branch"
	// ChoiceOriginal forks the root of the viewed recipe's chain.
	ChoiceOriginal Choice = "original"
)

// ParseChoice converts a wire value into a Choice. Empty means branch.
func ParseChoice(s string) (Choice, error) {
	switch c := Choice(s); c {
	case "":
		return ChoiceBranch, nil
	case ChoiceBranch, ChoiceOriginal:
		return c, nil
	default:
		return "", fmt.Errorf("unknown fork choice: %q", s)
	}
}

// Overrides replaces fields on the new fork. Nil fields are left alone.
type Overrides struct {
	Title           *string
	Description     *string
	AuthorName      *string
	Visibility      *models.Visibility
	ServingsDefault *int
	Tags            []string
	ForkReason      *string
}

// Options configures Recipe.
type Options struct {
	// Choice defaults to ChoiceBranch.
	Choice Choice

	// Original is the resolved root ancestor. Only read when Choice is
	// ChoiceOriginal.
	Original *models.Recipe

	Overrides Overrides
}

// Recipe returns a new private recipe derived from source.
//
// With ChoiceOriginal and a non-nil Original the fork is based on Original;
// otherwise it is based on source. An original request without a usable
// Original quietly falls back to source. The returned recipe owns all of its
// slices.
func Recipe(source models.Recipe, opts Options) models.Recipe {
	base := source
	if opts.Choice == ChoiceOriginal && opts.Original != nil {
		base = *opts.Original
	}

	out := base.Clone()
	out.ID = NewID(base.ID)
	out.Visibility = models.VisibilityPrivate
	out.ParentID = base.ID
	out.RootID = models.RootOf(base)
	out.ForkReason = DefaultReason
	out.OwnerID = ""
	out.CreatedAt = 0
	out.UpdatedAt = 0

	applyOverrides(&out, opts.Overrides)
	return out
}

// NewID returns a fork id derived from parentID with a random suffix.
func NewID(parentID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-fork-%s", parentID, suffix)
}

func applyOverrides(r *models.Recipe, o Overrides) {
	if o.Title != nil {
		r.Title = *o.Title
	}
	if o.Description != nil {
		r.Description = *o.Description
	}
	if o.AuthorName != nil {
		r.AuthorName = *o.AuthorName
	}
	if o.Visibility != nil {
		r.Visibility = *o.Visibility
	}
	if o.ServingsDefault != nil {
		r.ServingsDefault = *o.ServingsDefault
	}
	if o.Tags != nil {
		r.Tags = make([]string, len(o.Tags))
		copy(r.Tags, o.Tags)
	}
	if o.ForkReason != nil {
		r.ForkReason = *o.ForkReason
	}
}
