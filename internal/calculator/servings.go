// Package calculator scales ingredient quantities between serving counts.
package calculator

import (
	"fmt"
	"math"

	"github.com/mmynk/scrtch/internal/models"
)

// Scale returns a copy of ingredients with every amount multiplied by
// to/from. Ingredients without an amount ("salt to taste") are copied
// unchanged. Amounts are rounded to two decimals.
func Scale(ingredients []models.Ingredient, from, to int) ([]models.Ingredient, error) {
	if from <= 0 {
		return nil, fmt.Errorf("default servings must be positive, got %d", from)
	}
	if to <= 0 {
		return nil, fmt.Errorf("servings must be positive, got %d", to)
	}

	factor := float64(to) / float64(from)
	out := make([]models.Ingredient, len(ingredients))
	for i, ing := range ingredients {
		if ing.Amount != nil {
			amount := round2(*ing.Amount * factor)
			ing.Amount = &amount
		}
		out[i] = ing
	}
	return out, nil
}

// ScaleRecipe returns a copy of r scaled to servings. Scaling to the
// recipe's own default returns an unchanged copy.
func ScaleRecipe(r models.Recipe, servings int) (models.Recipe, error) {
	out := r.Clone()
	if servings == r.ServingsDefault {
		return out, nil
	}
	ingredients, err := Scale(r.Ingredients, r.ServingsDefault, servings)
	if err != nil {
		return models.Recipe{}, err
	}
	out.Ingredients = ingredients
	out.ServingsDefault = servings
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
