package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/fridge2fork/backend/internal/models"
	"github.com/pageza/fridge2fork/backend/internal/types"
)

func sampleRecipe(name string) types.Recipe {
	return types.Recipe{
		Name:             name,
		Ingredients:      []string{"tomato", "basil"},
		ShortDescription: "Bright and quick.",
		FullRecipe:       "1. Chop.\n2. Toss.",
		CookingTime:      "10 minutes",
	}
}

func TestRecipesRequest(t *testing.T) {
	env := setupTestRouter(t)

	imagePath, releaseImage, err := env.store.SaveGenerated([]byte("png-bytes"))
	require.NoError(t, err)
	released := false

	recipes := []types.Recipe{sampleRecipe("Caprese"), sampleRecipe("Bruschetta")}
	env.recipes.On("GenerateRecipes", mock.Anything, mock.MatchedBy(func(req *types.RecipeRequest) bool {
		return req.NumRecipes == 2 &&
			req.Diet == string(types.DietVegetarian) &&
			req.Cuisine == string(types.CuisineNoPreference) &&
			assert.ObjectsAreEqual(types.StringList{"nuts"}, req.Allergies) &&
			assert.ObjectsAreEqual(types.StringList{}, req.Avoid)
	})).Return(recipes, nil).Once()

	env.images.On("GenerateRecipeImages", mock.Anything, recipes).Return([]types.RecipeWithImage{
		{Recipe: recipes[0], ImagePath: imagePath},
		{Recipe: recipes[1], ImageError: fmt.Errorf("image failed")},
	}, func() {
		released = true
		releaseImage()
	}).Once()

	env.history.On("Record", mock.Anything, mock.MatchedBy(func(r *models.GenerationRecord) bool {
		return r.Status == models.GenerationSucceeded && r.Requested == 2 && r.Returned == 2 && r.WithImages == 1
	})).Return(nil).Once()

	w := env.postJSON(t, "/api/recipes-request",
		`{"ingredients":["tomato","basil"],"num_recipes":2,"allergies":"nuts","diet":"vegetarian"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, released)

	var resp struct {
		Recipes []struct {
			Name        string   `json:"name"`
			Ingredients []string `json:"ingredients"`
			ImageBase64 string   `json:"image_base64"`
		} `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Recipes, 2)
	assert.Equal(t, "Caprese", resp.Recipes[0].Name)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), resp.Recipes[0].ImageBase64)
	assert.Equal(t, "", resp.Recipes[1].ImageBase64)
	assert.Equal(t, []string{"tomato", "basil"}, resp.Recipes[1].Ingredients)
}

func TestRecipesRequestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing ingredients", body: `{"num_recipes":2}`},
		{name: "zero recipes", body: `{"ingredients":["egg"],"num_recipes":0}`},
		{name: "too many recipes", body: `{"ingredients":["egg"],"num_recipes":11}`},
		{name: "num_recipes not a number", body: `{"ingredients":["egg"],"num_recipes":"two"}`},
		{name: "unknown diet", body: `{"ingredients":["egg"],"num_recipes":1,"diet":"carnivore"}`},
		{name: "unknown cuisine", body: `{"ingredients":["egg"],"num_recipes":1,"cuisine":"lunar"}`},
		{name: "allergies as object", body: `{"ingredients":["egg"],"num_recipes":1,"allergies":{"a":1}}`},
		{name: "malformed json", body: `{"ingredients":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t)
			w := env.postJSON(t, "/api/recipes-request", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
		})
	}
}

func TestRecipesRequestUpstreamFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "deadline", err: fmt.Errorf("failed to generate recipes: %w", context.DeadlineExceeded), expected: http.StatusGatewayTimeout},
		{name: "provider", err: fmt.Errorf("failed to generate recipes: status 500"), expected: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t)
			env.recipes.On("GenerateRecipes", mock.Anything, mock.Anything).Return(nil, tt.err).Once()
			env.history.On("Record", mock.Anything, mock.MatchedBy(func(r *models.GenerationRecord) bool {
				return r.Status == models.GenerationFailed && r.Error != ""
			})).Return(nil).Once()

			w := env.postJSON(t, "/api/recipes-request", `{"ingredients":"egg","num_recipes":1}`)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRecipesRequestHistoryFailureIsIgnored(t *testing.T) {
	env := setupTestRouter(t)
	env.recipes.On("GenerateRecipes", mock.Anything, mock.Anything).Return([]types.Recipe{}, nil).Once()
	env.images.On("GenerateRecipeImages", mock.Anything, []types.Recipe{}).Return([]types.RecipeWithImage{}).Once()
	env.history.On("Record", mock.Anything, mock.Anything).Return(fmt.Errorf("db down")).Once()

	w := env.postJSON(t, "/api/recipes-request", `{"ingredients":["egg"],"num_recipes":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recipes":[]}`, w.Body.String())
}

func TestGenerations(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		env := setupTestRouter(t)
		env.history.On("Recent", mock.Anything, 0).Return([]models.GenerationRecord{
			{Requested: 3, Returned: 3, Status: models.GenerationSucceeded},
		}, nil).Once()

		w := env.get(t, "/api/generations")
		require.Equal(t, http.StatusOK, w.Code)
		generations, ok := decode(t, w)["generations"].([]any)
		require.True(t, ok)
		assert.Len(t, generations, 1)
	})

	t.Run("explicit limit", func(t *testing.T) {
		env := setupTestRouter(t)
		env.history.On("Recent", mock.Anything, 5).Return([]models.GenerationRecord{}, nil).Once()

		w := env.get(t, "/api/generations?limit=5")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		env := setupTestRouter(t)
		for _, raw := range []string{"0", "-1", "ten"} {
			w := env.get(t, "/api/generations?limit="+raw)
			assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		env := setupTestRouter(t)
		env.history.On("Recent", mock.Anything, 0).Return(nil, fmt.Errorf("db down")).Once()

		w := env.get(t, "/api/generations")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
