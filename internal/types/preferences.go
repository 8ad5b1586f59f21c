package types

import (
	"fmt"
	"strings"
)

// Diet is a single-choice dietary restriction
type Diet string

const (
	DietNoRestrictions Diet = "No restrictions"
	DietVegetarian     Diet = "Vegetarian"
	DietVegan          Diet = "Vegan"
	DietPescatarian    Diet = "Pescatarian"
	DietKeto           Diet = "Keto"
	DietHalal          Diet = "Halal"
	DietKosher         Diet = "Kosher"
)

// Diets lists every accepted diet in display order
var Diets = []Diet{DietNoRestrictions, DietVegetarian, DietVegan, DietPescatarian, DietKeto, DietHalal, DietKosher}

// Cuisine is a single-choice cuisine preference
type Cuisine string

const (
	CuisineAsian         Cuisine = "Asian"
	CuisineEuropean      Cuisine = "European"
	CuisineMediterranean Cuisine = "Mediterranean"
	CuisineMiddleEastern Cuisine = "Middle Eastern"
	CuisineNoPreference  Cuisine = "No Preference"
)

// Cuisines lists every accepted cuisine in display order
var Cuisines = []Cuisine{CuisineAsian, CuisineEuropean, CuisineMediterranean, CuisineMiddleEastern, CuisineNoPreference}

// ValidationError reports a request field holding an unacceptable value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ParseDiet matches s against the known diets ignoring case, spaces,
// hyphens and underscores. An empty value means no restrictions.
func ParseDiet(s string) (Diet, error) {
	if strings.TrimSpace(s) == "" {
		return DietNoRestrictions, nil
	}
	for _, d := range Diets {
		if optionKey(string(d)) == optionKey(s) {
			return d, nil
		}
	}
	return "", &ValidationError{Field: "diet", Message: fmt.Sprintf("unknown diet %q", s)}
}

// ParseCuisine matches s against the known cuisines like ParseDiet.
// An empty value means no preference.
func ParseCuisine(s string) (Cuisine, error) {
	if strings.TrimSpace(s) == "" {
		return CuisineNoPreference, nil
	}
	for _, c := range Cuisines {
		if optionKey(string(c)) == optionKey(s) {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "cuisine", Message: fmt.Sprintf("unknown cuisine %q", s)}
}

func optionKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "-", "_", "-").Replace(s)
}
