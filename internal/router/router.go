package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/config"
	"github.com/pageza/fridge2fork/backend/internal/api"
	"github.com/pageza/fridge2fork/backend/internal/metrics"
	"github.com/pageza/fridge2fork/backend/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by SetupRouter
type Handlers struct {
	Health      *api.HealthHandler
	Ingredients *api.IngredientHandler
	Recipes     *api.RecipeHandler
	Cleanup     *api.CleanupHandler
	Static      *api.StaticHandler
}

// SetupRouter configures the application routes
func SetupRouter(cfg *config.Config, h Handlers, limiter *middleware.RateLimiter, m *metrics.Metrics, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	router.Use(
		middleware.RequestLogger(log, m),
		middleware.Recovery(log),
		middleware.CORS(cfg.AllowedOrigins),
	)

	router.GET("/health", h.Health.Check)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	v := router.Group("/api")
	v.GET("/health", h.Health.Check)

	// Routes that call the model provider
	limited := v.Group("", limiter.Middleware())
	{
		limited.POST("/user-image", h.Ingredients.UserImage)
		limited.POST("/clean-ingredients", h.Ingredients.CleanIngredients)
		limited.POST("/recipes-request", h.Recipes.RecipesRequest)
	}

	v.POST("/cleanup-image", h.Cleanup.CleanupImage)
	v.POST("/cleanup-session", h.Cleanup.CleanupSession)
	v.GET("/generations", h.Recipes.Generations)

	router.NoRoute(h.Static.Serve)

	return router
}
