package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pageza/fridge2fork/backend/config"
	"github.com/pageza/fridge2fork/backend/internal/api"
	"github.com/pageza/fridge2fork/backend/internal/database"
	"github.com/pageza/fridge2fork/backend/internal/metrics"
	"github.com/pageza/fridge2fork/backend/internal/middleware"
	"github.com/pageza/fridge2fork/backend/internal/router"
	"github.com/pageza/fridge2fork/backend/internal/service"
	"github.com/pageza/fridge2fork/backend/internal/storage"
)

// Server represents the HTTP server and the backing services it owns
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	logger zerolog.Logger

	db    *gorm.DB
	redis *redis.Client
}

// New wires configuration, storage, optional backing services and the
// model pipeline into a ready to start server. Redis and the database are
// optional: when configured but unreachable the server starts without them.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()
	s := &Server{cfg: cfg, logger: logger}

	store := storage.NewScratchStore(cfg.UploadDir, cfg.GeneratedDir, m, logger)
	if err := store.EnsureDirs(); err != nil {
		return nil, err
	}

	s3cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("image archive disabled")
	}
	archive := storage.NewArchiver(s3cfg, logger)

	if cfg.RedisEnabled() {
		if s.redis, err = database.NewRedisClient(cfg, logger); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, rate limiting falls back to in-process buckets")
			s.redis = nil
		}
	}

	if cfg.DatabaseEnabled() {
		if s.db, err = database.New(cfg, logger); err != nil {
			logger.Warn().Err(err).Msg("database unavailable, generation history disabled")
		} else if err = database.RunMigrations(s.db); err != nil {
			logger.Warn().Err(err).Msg("migrations failed, generation history disabled")
			_ = database.Close(s.db)
			s.db = nil
		}
	}

	llm := service.NewLLMService(cfg, logger, m)
	ingredients := service.NewIngredientService(llm, store, cfg.MaxConcurrency, logger, m)
	recipes := service.NewRecipeService(llm, logger)
	images := service.NewImageService(llm, store, archive, cfg.MaxConcurrency, logger, m)
	history := service.NewHistoryService(s.db, logger)

	var dbCheck func(context.Context) error
	if s.db != nil {
		db := s.db
		dbCheck = func(ctx context.Context) error { return database.HealthCheck(ctx, db) }
	}

	handlers := router.Handlers{
		Health:      api.NewHealthHandler(dbCheck),
		Ingredients: api.NewIngredientHandler(ingredients, store, cfg.MaxUploadBytes, logger),
		Recipes:     api.NewRecipeHandler(recipes, images, history, store, logger),
		Cleanup:     api.NewCleanupHandler(store, logger),
		Static:      api.NewStaticHandler(cfg.FrontendDir),
	}
	limiter := middleware.NewModelRateLimiter(s.redis, cfg.RateLimitPerHour, logger)

	s.router = router.SetupRouter(cfg, handlers, limiter, m, logger)
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// the backing services.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}
	if err := database.Close(s.db); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}
