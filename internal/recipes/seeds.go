package recipes

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/scrtch/internal/models"
)

//go:embed seeds.yaml
var seedsYAML []byte

type seedRecipe struct {
	ID                    string `yaml:"id"`
	models.RecipeDocument `yaml:",inline"`
}

// Seeds returns the built-in recipe set in display order.
func Seeds() ([]models.Recipe, error) {
	var raw []seedRecipe
	if err := yaml.Unmarshal(seedsYAML, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse seed recipes: %w", err)
	}

	out := make([]models.Recipe, 0, len(raw))
	for _, s := range raw {
		if s.ID == "" || !s.Acceptable() {
			return nil, fmt.Errorf("invalid seed recipe %q", s.ID)
		}
		out = append(out, s.Recipe(s.ID))
	}
	return out, nil
}
