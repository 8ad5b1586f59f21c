package service

import (
	"context"

	"github.com/pageza/fridge2fork/backend/internal/models"
	"github.com/pageza/fridge2fork/backend/internal/types"
)

// IIngredientService defines the interface for ingredient extraction and cleaning
type IIngredientService interface {
	ExtractIngredients(ctx context.Context, paths []string) ([]string, error)
	CleanIngredients(ctx context.Context, ingredients []string) ([]string, error)
}

// IRecipeService defines the interface for recipe generation
type IRecipeService interface {
	GenerateRecipes(ctx context.Context, req *types.RecipeRequest) ([]types.Recipe, error)
}

// IImageService defines the interface for recipe illustration
type IImageService interface {
	GenerateRecipeImages(ctx context.Context, recipes []types.Recipe) ([]types.RecipeWithImage, func())
}

// IHistoryService defines the interface for generation history
type IHistoryService interface {
	Record(ctx context.Context, record *models.GenerationRecord) error
	Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error)
}

var (
	_ IIngredientService = (*IngredientService)(nil)
	_ IRecipeService     = (*RecipeService)(nil)
	_ IImageService      = (*ImageService)(nil)
	_ IHistoryService    = (*HistoryService)(nil)
)
