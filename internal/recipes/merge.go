package recipes

import "github.com/mmynk/scrtch/internal/models"

// MergeByID reconciles incoming recipes with existing ones. Incoming wins
// per id; recipes only present in existing are kept. Existing positions are
// preserved and new ids are appended in incoming order. The result shares
// no structure with either argument.
func MergeByID(existing, incoming []models.Recipe) []models.Recipe {
	out := make([]models.Recipe, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	for _, r := range existing {
		if i, ok := index[r.ID]; ok {
			out[i] = r.Clone()
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r.Clone())
	}
	for _, r := range incoming {
		if i, ok := index[r.ID]; ok {
			out[i] = r.Clone()
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r.Clone())
	}
	return out
}

// upsert replaces r in place or prepends it.
func upsert(list []models.Recipe, r models.Recipe) []models.Recipe {
	for i := range list {
		if list[i].ID == r.ID {
			out := append([]models.Recipe(nil), list...)
			out[i] = r.Clone()
			return out
		}
	}
	return append([]models.Recipe{r.Clone()}, list...)
}
