package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/internal/models"
	"github.com/pageza/fridge2fork/backend/internal/service"
	"github.com/pageza/fridge2fork/backend/internal/storage"
	"github.com/pageza/fridge2fork/backend/internal/types"
)

type RecipeHandler struct {
	recipes service.IRecipeService
	images  service.IImageService
	history service.IHistoryService
	store   *storage.ScratchStore
	logger  zerolog.Logger
}

func NewRecipeHandler(recipes service.IRecipeService, images service.IImageService, history service.IHistoryService, store *storage.ScratchStore, logger zerolog.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes: recipes,
		images:  images,
		history: history,
		store:   store,
		logger:  logger.With().Str("handler", "recipes").Logger(),
	}
}

// RecipesRequest generates recipes and returns them with inline images
func (h *RecipeHandler) RecipesRequest(c *gin.Context) {
	start := time.Now()

	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.Normalize(); err != nil {
		badRequest(c, err)
		return
	}

	record := &models.GenerationRecord{
		Requested:       req.NumRecipes,
		IngredientCount: len(req.Ingredients),
		Diet:            req.Diet,
		Cuisine:         req.Cuisine,
		Status:          models.GenerationSucceeded,
	}
	defer h.recordHistory(c.Request.Context(), record, start)

	recipes, err := h.recipes.GenerateRecipes(c.Request.Context(), &req)
	if err != nil {
		record.Status = models.GenerationFailed
		record.Error = err.Error()
		serviceError(c, h.logger, err)
		return
	}

	results, release := h.images.GenerateRecipeImages(c.Request.Context(), recipes)
	defer release()

	out := make([]types.RecipeResponse, 0, len(results))
	for _, r := range results {
		encoded := ""
		if r.ImagePath != "" {
			if encoded, err = h.store.ReadBase64(r.ImagePath); err != nil {
				h.logger.Warn().Err(err).Str("recipe", r.Name).Msg("failed to read generated image")
				encoded = ""
			} else {
				record.WithImages++
			}
		}
		out = append(out, types.NewRecipeResponse(r.Recipe, encoded))
	}
	record.Returned = len(out)

	c.JSON(http.StatusOK, types.RecipesResponse{Recipes: out})
}

// recordHistory persists record after the response; it outlives request
// cancellation so failed requests are recorded too.
func (h *RecipeHandler) recordHistory(ctx context.Context, record *models.GenerationRecord, start time.Time) {
	record.DurationMs = time.Since(start).Milliseconds()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.history.Record(ctx, record); err != nil {
		h.logger.Warn().Err(err).Msg("failed to record generation history")
	}
}

// Generations lists recent generation metadata
func (h *RecipeHandler) Generations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list generations")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to list generations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"generations": records})
}
