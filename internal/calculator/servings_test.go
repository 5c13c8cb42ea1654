package calculator

import (
	"math"
	"testing"

	"github.com/mmynk/scrtch/internal/models"
)

func amount(v float64) *float64 { return &v }

func TestScale(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		amounts  []*float64
		want     []*float64
		wantErr  bool
	}{
		{
			name:    "double",
			from:    4,
			to:      8,
			amounts: []*float64{amount(2), amount(0.5)},
			want:    []*float64{amount(4), amount(1)},
		},
		{
			name:    "third rounds to two decimals",
			from:    3,
			to:      1,
			amounts: []*float64{amount(1)},
			want:    []*float64{amount(0.33)},
		},
		{
			name:    "missing amount stays missing",
			from:    2,
			to:      6,
			amounts: []*float64{nil, amount(1.5)},
			want:    []*float64{nil, amount(4.5)},
		},
		{
			name:    "zero default servings should error",
			from:    0,
			to:      2,
			amounts: []*float64{amount(1)},
			wantErr: true,
		},
		{
			name:    "zero target should error",
			from:    2,
			to:      0,
			amounts: []*float64{amount(1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]models.Ingredient, len(tt.amounts))
			for i, a := range tt.amounts {
				in[i] = models.Ingredient{Name: "item", Amount: a}
			}

			got, err := Scale(in, tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scale() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			for i, ing := range got {
				switch {
				case tt.want[i] == nil && ing.Amount != nil:
					t.Errorf("ingredient %d: amount = %v, want none", i, *ing.Amount)
				case tt.want[i] != nil && ing.Amount == nil:
					t.Errorf("ingredient %d: amount missing, want %v", i, *tt.want[i])
				case tt.want[i] != nil && math.Abs(*ing.Amount-*tt.want[i]) > 1e-9:
					t.Errorf("ingredient %d: amount = %v, want %v", i, *ing.Amount, *tt.want[i])
				}
			}
		})
	}
}

func TestScaleDoesNotShareAmounts(t *testing.T) {
	in := []models.Ingredient{{Name: "flour", Amount: amount(2)}}

	out, err := Scale(in, 1, 2)
	if err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	*out[0].Amount = 100

	if *in[0].Amount != 2 {
		t.Errorf("input amount changed to %v", *in[0].Amount)
	}
}

func TestScaleRecipe(t *testing.T) {
	r := models.Recipe{
		ID:              "bread",
		ServingsDefault: 2,
		Ingredients:     []models.Ingredient{{Name: "flour", Amount: amount(500), Unit: "g"}},
	}

	same, err := ScaleRecipe(r, 2)
	if err != nil {
		t.Fatalf("ScaleRecipe failed: %v", err)
	}
	if *same.Ingredients[0].Amount != 500 || same.ServingsDefault != 2 {
		t.Errorf("unexpected copy: %+v", same)
	}

	doubled, err := ScaleRecipe(r, 4)
	if err != nil {
		t.Fatalf("ScaleRecipe failed: %v", err)
	}
	if *doubled.Ingredients[0].Amount != 1000 || doubled.ServingsDefault != 4 {
		t.Errorf("unexpected scaled recipe: %+v", doubled)
	}
	if *r.Ingredients[0].Amount != 500 {
		t.Errorf("source recipe changed")
	}

	if _, err := ScaleRecipe(r, -1); err == nil {
		t.Error("expected error for negative servings")
	}
}
