package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/scrtch/internal/fork"
	"github.com/mmynk/scrtch/internal/makemode"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/pkg/api"
)

func toAPIRecipe(r models.Recipe) api.Recipe {
	out := api.Recipe{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		AuthorName:      r.AuthorName,
		Visibility:      string(r.Visibility),
		Ingredients:     make([]api.Ingredient, len(r.Ingredients)),
		Steps:           make([]api.Step, len(r.Steps)),
		Tags:            append([]string{}, r.Tags...),
		ServingsDefault: r.ServingsDefault,
		ParentID:        r.ParentID,
		RootID:          r.RootID,
		ForkReason:      r.ForkReason,
		OwnerID:         r.OwnerID,
		CreatedAt:       api.TimestampFromMillis(r.CreatedAt),
		UpdatedAt:       api.TimestampFromMillis(r.UpdatedAt),
	}
	for i, ing := range r.Ingredients {
		out.Ingredients[i] = api.Ingredient{Name: ing.Name, Unit: ing.Unit, Note: ing.Note}
		if ing.Amount != nil {
			amount := *ing.Amount
			out.Ingredients[i].Amount = &amount
		}
	}
	for i, step := range r.Steps {
		out.Steps[i] = api.Step{Text: step.Text, Timer: toAPITimer(step.Timer)}
	}
	return out
}

func toAPIRecipes(rs []models.Recipe) []api.Recipe {
	out := make([]api.Recipe, len(rs))
	for i, r := range rs {
		out[i] = toAPIRecipe(r)
	}
	return out
}

func toAPITimer(t *models.StepTimer) *api.StepTimer {
	if t == nil {
		return nil
	}
	return &api.StepTimer{Label: t.Label, Seconds: t.Seconds, Kind: string(t.EffectiveKind())}
}

// fromAPIRecipe converts the editable content of a wire recipe. Lineage,
// owner and timestamps are left for the caller to decide.
func fromAPIRecipe(in api.Recipe) (models.Recipe, error) {
	out := models.Recipe{
		ID:              in.ID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		AuthorName:      in.AuthorName,
		Ingredients:     make([]models.Ingredient, 0, len(in.Ingredients)),
		Steps:           make([]models.Step, 0, len(in.Steps)),
		Tags:            append([]string{}, in.Tags...),
		ServingsDefault: in.ServingsDefault,
		ForkReason:      in.ForkReason,
	}

	if in.Visibility == "" {
		out.Visibility = models.VisibilityPrivate
	} else {
		v, err := models.ParseVisibility(in.Visibility)
		if err != nil {
			return models.Recipe{}, err
		}
		out.Visibility = v
	}

	for _, ing := range in.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return models.Recipe{}, errors.New("ingredient name is required")
		}
		m := models.Ingredient{Name: ing.Name, Unit: ing.Unit, Note: ing.Note}
		if ing.Amount != nil {
			amount := *ing.Amount
			m.Amount = &amount
		}
		out.Ingredients = append(out.Ingredients, m)
	}

	for i, step := range in.Steps {
		m := models.Step{Text: step.Text}
		if step.Timer != nil {
			timer, err := fromAPITimer(*step.Timer)
			if err != nil {
				return models.Recipe{}, fmt.Errorf("step %d: %w", i, err)
			}
			m.Timer = &timer
		}
		out.Steps = append(out.Steps, m)
	}

	if err := validateRecipe(out); err != nil {
		return models.Recipe{}, err
	}
	return out, nil
}

func fromAPITimer(t api.StepTimer) (models.StepTimer, error) {
	if t.Seconds <= 0 {
		return models.StepTimer{}, errors.New("timer seconds must be positive")
	}
	out := models.StepTimer{Label: t.Label, Seconds: t.Seconds}
	switch models.TimerKind(t.Kind) {
	case "", models.TimerCountdown:
		out.Kind = models.TimerCountdown
	case models.TimerIn:
		out.Kind = models.TimerIn
	default:
		return models.StepTimer{}, fmt.Errorf("unknown timer kind: %q", t.Kind)
	}
	return out, nil
}

// validateRecipe applies the same minimum readers use, so a write can
// never produce a document that gets dropped as malformed.
func validateRecipe(r models.Recipe) error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.ServingsDefault <= 0 {
		return errors.New("servingsDefault must be positive")
	}
	return nil
}

func fromAPIOverrides(in api.ForkOverrides) (fork.Overrides, error) {
	out := fork.Overrides{
		Title:           in.Title,
		Description:     in.Description,
		AuthorName:      in.AuthorName,
		ServingsDefault: in.ServingsDefault,
		Tags:            in.Tags,
		ForkReason:      in.ForkReason,
	}
	if in.Visibility != nil {
		v, err := models.ParseVisibility(*in.Visibility)
		if err != nil {
			return fork.Overrides{}, err
		}
		out.Visibility = &v
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return fork.Overrides{}, errors.New("title is required")
	}
	if in.ServingsDefault != nil && *in.ServingsDefault <= 0 {
		return fork.Overrides{}, errors.New("servingsDefault must be positive")
	}
	return out, nil
}

func toAPISession(id string, v makemode.View) api.SessionResponse {
	out := api.SessionView{
		RecipeID:    v.RecipeID,
		Title:       v.Title,
		Now:         api.NewTimestamp(v.Now),
		Steps:       make([]api.SessionStep, len(v.Steps)),
		ActiveIndex: v.ActiveIndex,
		AllDone:     v.AllDone,
		Completed:   append([]int{}, v.Completed...),
		Timers:      make([]api.RunningTimer, len(v.Timers)),
	}
	for i, s := range v.Steps {
		out.Steps[i] = api.SessionStep{
			Index:     s.Index,
			Text:      s.Text,
			Timer:     toAPITimer(s.Timer),
			Completed: s.Completed,
			Active:    s.Active,
		}
	}
	for i, t := range v.Timers {
		out.Timers[i] = api.RunningTimer{
			StepIndex:        t.StepIndex,
			Label:            t.Label,
			EndTime:          api.NewTimestamp(t.EndTime),
			RemainingSeconds: t.RemainingSeconds,
		}
	}
	if v.CatchUp != nil {
		out.CatchUp = &api.CatchUp{Target: v.CatchUp.Target, Active: v.CatchUp.Active}
	}
	if v.Suggestion != nil {
		out.Suggestion = &api.Suggestion{
			BaseLabel: v.Suggestion.BaseLabel,
			Items:     make([]api.SuggestedTimer, len(v.Suggestion.Items)),
		}
		for i, item := range v.Suggestion.Items {
			out.Suggestion.Items[i] = api.SuggestedTimer{StepIndex: item.StepIndex, Label: item.Label, Seconds: item.Seconds}
		}
	}
	return api.SessionResponse{SessionID: id, Session: out}
}

func toAPIUser(u *models.User) api.User {
	out := api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}
	if u.CreatedAt != 0 {
		out.CreatedAt = api.NewTimestamp(time.Unix(u.CreatedAt, 0))
	}
	return out
}

func toAPIProfile(p models.UserProfile) api.Profile {
	return api.Profile{
		ScreenName: p.ScreenName,
		Theme:      string(p.Theme),
		CreatedAt:  api.TimestampFromMillis(p.CreatedAt),
		UpdatedAt:  api.TimestampFromMillis(p.UpdatedAt),
	}
}
