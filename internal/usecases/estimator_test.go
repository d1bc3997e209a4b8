package usecases

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate_ExactMatch(t *testing.T) {
	for name, kcal := range calorieTable {
		est := Estimate(name)
		assert.Equal(t, name, est.FoodName)
		assert.Equal(t, kcal, est.EstimatedCalories)
		assert.Equal(t, "kcal", est.Unit)
	}
}

func TestEstimate_ExactMatchNormalizesInput(t *testing.T) {
	est := Estimate("  Fried Rice  ")
	assert.Equal(t, "fried rice", est.FoodName)
	assert.Equal(t, calorieTable["fried rice"], est.EstimatedCalories)
}

func TestEstimate_KeywordMatch(t *testing.T) {
	tests := []struct {
		label string
		food  string
	}{
		{"spicy ramen noodles", "noodles"},
		{"ramen noodles", "noodles"},
		{"rice noodles", "noodles"}, // noodle rule wins over rice
		{"special fried rice with egg", "fried rice"},
		{"chicken teriyaki", "fried chicken"},
		{"beef stew", "soup"},
		{"double cheeseburger", "hamburger"},
		{"mango smoothie bowl", "fruit"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			est := Estimate(tt.label)
			assert.Equal(t, tt.food, est.FoodName)
			assert.Equal(t, calorieTable[tt.food], est.EstimatedCalories)
		})
	}
}

func TestEstimate_NoMatchUsesDefault(t *testing.T) {
	est := Estimate("xyzzy")
	assert.Equal(t, "xyzzy", est.FoodName)
	assert.Equal(t, DefaultCalories, est.EstimatedCalories)
	assert.Equal(t, "kcal", est.Unit)
}

func TestEstimate_EmptyLabel(t *testing.T) {
	for _, label := range []string{"", "   ", "\t\n"} {
		est := Estimate(label)
		assert.Equal(t, UnknownFoodName, est.FoodName)
		assert.Equal(t, DefaultCalories, est.EstimatedCalories)
		assert.Equal(t, "kcal", est.Unit)
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	first := Estimate("ramen noodles")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Estimate("ramen noodles"))
	}
}

// Every canonical name a keyword rule resolves to must be in the table,
// otherwise the rule would bill zero calories.
func TestKeywordRules_CanonicalNamesPresent(t *testing.T) {
	for _, rule := range keywordRules {
		kcal, ok := calorieTable[rule.food]
		require.True(t, ok, "rule %v resolves to %q which is not in the table", rule.keywords, rule.food)
		require.Positive(t, kcal)
	}
}

func TestCalorieTable_KeysNormalized(t *testing.T) {
	for name, kcal := range calorieTable {
		assert.Equal(t, strings.ToLower(name), name)
		assert.Equal(t, strings.TrimSpace(name), name)
		assert.Positive(t, kcal)
	}
}
