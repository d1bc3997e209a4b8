package usecases

import (
	"strings"

	"calobot/internal/entities"
)

const (
	// DefaultCalories is billed when a label matches nothing in the table.
	DefaultCalories = 200
	// UnknownFoodName replaces an empty label in the estimate.
	UnknownFoodName = "food"

	calorieUnit = "kcal"
)

// calorieTable maps canonical food names to a per-serving kcal estimate.
// Keys are lowercase ASCII with no surrounding whitespace; values positive.
// Read-only for the process lifetime, safe to share without locking.
var calorieTable = map[string]int{
	"noodles":       250,
	"fried rice":    520,
	"rice":          200,
	"curry rice":    700,
	"sushi":         350,
	"pizza":         285,
	"hamburger":     295,
	"fried chicken": 410,
	"steak":         450,
	"sandwich":      300,
	"dumplings":     350,
	"salad":         150,
	"soup":          120,
	"hot pot":       550,
	"bread":         265,
	"cake":          350,
	"bubble tea":    400,
	"fruit":         60,
}

// keywordRule maps label substrings to a canonical table entry.
type keywordRule struct {
	keywords []string
	food     string
}

// keywordRules is scanned in order; the first rule with any substring hit
// wins. Order is deliberate: "noodle" before "rice" so "rice noodles"
// resolves to noodles, "fried rice" before plain "rice", and so on.
var keywordRules = []keywordRule{
	{[]string{"noodle", "ramen", "pasta", "spaghetti", "udon"}, "noodles"},
	{[]string{"fried rice"}, "fried rice"},
	{[]string{"curry"}, "curry rice"},
	{[]string{"rice", "risotto", "paella"}, "rice"},
	{[]string{"burger"}, "hamburger"},
	{[]string{"pizza"}, "pizza"},
	{[]string{"sushi", "sashimi"}, "sushi"},
	{[]string{"dumpling", "gyoza", "wonton"}, "dumplings"},
	{[]string{"hot pot", "hotpot"}, "hot pot"},
	{[]string{"soup", "stew", "broth"}, "soup"},
	{[]string{"salad", "vegetable"}, "salad"},
	{[]string{"chicken"}, "fried chicken"},
	{[]string{"steak", "beef", "pork"}, "steak"},
	{[]string{"sandwich", "toast"}, "sandwich"},
	{[]string{"bread", "bun", "bagel"}, "bread"},
	{[]string{"cake", "dessert", "pastry", "pie"}, "cake"},
	{[]string{"bubble tea", "boba", "milk tea"}, "bubble tea"},
	{[]string{"fruit", "apple", "banana", "mango"}, "fruit"},
}

// Estimate maps a free-text food label to a calorie figure. Exact table
// match first, then keyword rules in order, then the 200 kcal default.
// Pure and total: same input, same output, never fails.
func Estimate(label string) entities.CalorieEstimate {
	name := strings.ToLower(strings.TrimSpace(label))

	if kcal, ok := calorieTable[name]; ok {
		return entities.CalorieEstimate{FoodName: name, EstimatedCalories: kcal, Unit: calorieUnit}
	}

	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return entities.CalorieEstimate{
					FoodName:          rule.food,
					EstimatedCalories: calorieTable[rule.food],
					Unit:              calorieUnit,
				}
			}
		}
	}

	if name == "" {
		name = UnknownFoodName
	}

	return entities.CalorieEstimate{FoodName: name, EstimatedCalories: DefaultCalories, Unit: calorieUnit}
}
