package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList accepts either a JSON string or an array of strings.
// A single string becomes a one element list; null becomes an empty list.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = StringList{}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*l = StringList{str}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		*l = list
		return nil
	}

	return fmt.Errorf("expected a string or a list of strings, got %s", describeJSON(data))
}

func describeJSON(data []byte) string {
	if len(data) == 0 {
		return "nothing"
	}
	switch data[0] {
	case '{':
		return "an object"
	case '[':
		return "a list with non-string items"
	case 't', 'f':
		return "a boolean"
	default:
		return "a number"
	}
}

// RecipeRequest is the body of /api/recipes-request
type RecipeRequest struct {
	Ingredients StringList `json:"ingredients" binding:"required"`
	NumRecipes  int        `json:"num_recipes" binding:"required,min=1,max=10"`
	Allergies   StringList `json:"allergies"`
	Diet        string     `json:"diet"`
	Avoid       StringList `json:"avoid"`
	Cuisine     string     `json:"cuisine"`
}

// Normalize resolves diet and cuisine to their canonical labels and
// replaces missing lists with empty ones.
func (r *RecipeRequest) Normalize() error {
	diet, err := ParseDiet(r.Diet)
	if err != nil {
		return err
	}
	cuisine, err := ParseCuisine(r.Cuisine)
	if err != nil {
		return err
	}
	r.Diet = string(diet)
	r.Cuisine = string(cuisine)

	if r.Allergies == nil {
		r.Allergies = StringList{}
	}
	if r.Avoid == nil {
		r.Avoid = StringList{}
	}
	return nil
}

// CleanIngredientsRequest is the body of /api/clean-ingredients
type CleanIngredientsRequest struct {
	Ingredients StringList `json:"ingredients" binding:"required"`
}

// CleanupImageRequest is the body of /api/cleanup-image
type CleanupImageRequest struct {
	Path  string     `json:"path"`
	Paths StringList `json:"paths"`
}

// All returns every non-blank path named by the request
func (r CleanupImageRequest) All() []string {
	var out []string
	if p := strings.TrimSpace(r.Path); p != "" {
		out = append(out, p)
	}
	for _, p := range r.Paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UserImageResponse is returned by /api/user-image
type UserImageResponse struct {
	Ingredients []string `json:"ingredients"`
	ImagePaths  []string `json:"imagePaths"`
}

// IngredientsResponse is returned by /api/clean-ingredients
type IngredientsResponse struct {
	Ingredients []string `json:"ingredients"`
}

// RecipesResponse is returned by /api/recipes-request
type RecipesResponse struct {
	Recipes []RecipeResponse `json:"recipes"`
}

// CleanupResponse is returned by both cleanup endpoints
type CleanupResponse struct {
	Success bool `json:"success"`
}
