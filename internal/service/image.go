package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/fridge2fork/backend/internal/metrics"
	"github.com/pageza/fridge2fork/backend/internal/storage"
	"github.com/pageza/fridge2fork/backend/internal/types"
)

// ImageService illustrates recipes and keeps the results in scratch storage
type ImageService struct {
	llm            *LLMService
	store          *storage.ScratchStore
	archive        *storage.Archiver
	maxConcurrency int
	logger         zerolog.Logger
	metrics        *metrics.Metrics
}

// NewImageService creates a new ImageService instance. archive may be nil.
func NewImageService(llm *LLMService, store *storage.ScratchStore, archive *storage.Archiver, maxConcurrency int, logger zerolog.Logger, m *metrics.Metrics) *ImageService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &ImageService{
		llm:            llm,
		store:          store,
		archive:        archive,
		maxConcurrency: maxConcurrency,
		logger:         logger.With().Str("component", "images").Logger(),
		metrics:        m,
	}
}

// GenerateRecipeImages creates one image per recipe concurrently. A recipe
// whose image fails keeps an empty ImagePath and its error; the others are
// unaffected. Order matches recipes. The generated files stay leased until
// release is called.
func (s *ImageService) GenerateRecipeImages(ctx context.Context, recipes []types.Recipe) (results []types.RecipeWithImage, release func()) {
	out := make([]types.RecipeWithImage, len(recipes))
	releases := make([]func(), len(recipes))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i, recipe := range recipes {
		i, recipe := i, recipe
		out[i].Recipe = recipe
		g.Go(func() error {
			path, rel, err := s.generateOne(ctx, recipe)
			s.metrics.ObserveFanoutTask("image", err)
			if err != nil {
				s.logger.Warn().Err(err).Str("recipe", recipe.Name).Msg("image generation failed, returning recipe without image")
				out[i].ImageError = err
				return nil
			}
			out[i].ImagePath = path
			releases[i] = rel
			return nil
		})
	}
	_ = g.Wait()

	return out, func() {
		for _, rel := range releases {
			if rel != nil {
				rel()
			}
		}
	}
}

func (s *ImageService) generateOne(ctx context.Context, recipe types.Recipe) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	payload, err := s.llm.GenerateImage(ctx, imagePrompt(recipe))
	if err != nil {
		return "", nil, err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: image payload is not base64: %v", ErrInvalidModelOutput, err)
	}

	path, release, err := s.store.SaveGenerated(data)
	if err != nil {
		return "", nil, err
	}

	if _, err := s.archive.Archive(ctx, path); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("failed to archive generated image")
	}
	return path, release, nil
}
