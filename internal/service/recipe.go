package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/internal/types"
)

// RecipeService generates recipes from ingredients and preferences
type RecipeService struct {
	llm    *LLMService
	logger zerolog.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(llm *LLMService, logger zerolog.Logger) *RecipeService {
	return &RecipeService{
		llm:    llm,
		logger: logger.With().Str("component", "recipes").Logger(),
	}
}

// GenerateRecipes makes one structured call and returns at most
// req.NumRecipes recipes, none of which lists a declared allergen.
func (s *RecipeService) GenerateRecipes(ctx context.Context, req *types.RecipeRequest) ([]types.Recipe, error) {
	var out types.RecipeList
	if err := s.llm.CompleteStructured(ctx, OpRecipes, "recipe_list", recipeMessages(req), &out); err != nil {
		return nil, fmt.Errorf("failed to generate recipes: %w", err)
	}

	matcher := newAllergenMatcher(req.Allergies)
	recipes := make([]types.Recipe, 0, len(out.Recipes))
	for _, r := range out.Recipes {
		r.Name = strings.TrimSpace(r.Name)
		if allergen := matcher.match(r); allergen != "" {
			s.logger.Warn().Str("recipe", r.Name).Str("allergen", allergen).Msg("dropping recipe that contains a declared allergen")
			continue
		}
		recipes = append(recipes, r)
	}

	if len(recipes) > req.NumRecipes {
		s.logger.Debug().Int("requested", req.NumRecipes).Int("received", len(recipes)).Msg("truncating surplus recipes")
		recipes = recipes[:req.NumRecipes]
	}
	return recipes, nil
}
