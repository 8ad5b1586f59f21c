package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/fridge2fork/backend/internal/models"
	"github.com/pageza/fridge2fork/backend/internal/types"
)

// MockIngredientService is a mock implementation of the ingredient service
type MockIngredientService struct {
	mock.Mock
}

// ExtractIngredients mocks the ExtractIngredients method
func (m *MockIngredientService) ExtractIngredients(ctx context.Context, paths []string) ([]string, error) {
	args := m.Called(ctx, paths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// CleanIngredients mocks the CleanIngredients method
func (m *MockIngredientService) CleanIngredients(ctx context.Context, ingredients []string) ([]string, error) {
	args := m.Called(ctx, ingredients)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

// GenerateRecipes mocks the GenerateRecipes method
func (m *MockRecipeService) GenerateRecipes(ctx context.Context, req *types.RecipeRequest) ([]types.Recipe, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recipe), args.Error(1)
}

// MockImageService is a mock implementation of the image service
type MockImageService struct {
	mock.Mock
}

// GenerateRecipeImages mocks the GenerateRecipeImages method
func (m *MockImageService) GenerateRecipeImages(ctx context.Context, recipes []types.Recipe) ([]types.RecipeWithImage, func()) {
	args := m.Called(ctx, recipes)
	release := func() {}
	if len(args) > 1 {
		if fn, ok := args.Get(1).(func()); ok && fn != nil {
			release = fn
		}
	}
	if args.Get(0) == nil {
		return nil, release
	}
	return args.Get(0).([]types.RecipeWithImage), release
}

// MockHistoryService is a mock implementation of the history service
type MockHistoryService struct {
	mock.Mock
}

// Record mocks the Record method
func (m *MockHistoryService) Record(ctx context.Context, record *models.GenerationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Recent mocks the Recent method
func (m *MockHistoryService) Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GenerationRecord), args.Error(1)
}
