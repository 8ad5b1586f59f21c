package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/fridge2fork/backend/internal/metrics"
	"github.com/pageza/fridge2fork/backend/internal/storage"
	"github.com/pageza/fridge2fork/backend/internal/types"
)

// IngredientService extracts ingredients from photos and cleans typed lists
type IngredientService struct {
	llm            *LLMService
	store          *storage.ScratchStore
	maxConcurrency int
	logger         zerolog.Logger
	metrics        *metrics.Metrics
}

// NewIngredientService creates a new IngredientService instance
func NewIngredientService(llm *LLMService, store *storage.ScratchStore, maxConcurrency int, logger zerolog.Logger, m *metrics.Metrics) *IngredientService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &IngredientService{
		llm:            llm,
		store:          store,
		maxConcurrency: maxConcurrency,
		logger:         logger.With().Str("component", "ingredients").Logger(),
		metrics:        m,
	}
}

// ExtractIngredients runs one vision call per image and merges the results
// into a sorted, duplicate-free list. The first failing image cancels the
// others and fails the whole extraction.
func (s *IngredientService) ExtractIngredients(ctx context.Context, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return []string{}, nil
	}

	release := s.store.Lease(paths...)
	defer release()

	results := make([][]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			found, err := s.extractOne(gctx, path)
			s.metrics.ObserveFanoutTask("extract", err)
			if err != nil {
				return fmt.Errorf("failed to extract ingredients from %s: %w", filepath.Base(path), err)
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []string
	for _, r := range results {
		all = append(all, r...)
	}
	merged := NormalizeIngredients(all)
	sort.Strings(merged)

	s.logger.Info().Int("images", len(paths)).Int("ingredients", len(merged)).Msg("extracted ingredients")
	return merged, nil
}

func (s *IngredientService) extractOne(ctx context.Context, path string) ([]string, error) {
	dataURL, err := s.store.ReadDataURL(path)
	if err != nil {
		return nil, err
	}

	var out types.IngredientList
	if err := s.llm.CompleteStructured(ctx, OpExtract, "ingredient_list", extractMessages(dataURL), &out); err != nil {
		return nil, err
	}
	return out.Ingredients, nil
}

// CleanIngredients drops non-food entries and duplicates from a typed list.
// An empty list is returned as is without contacting the model.
func (s *IngredientService) CleanIngredients(ctx context.Context, ingredients []string) ([]string, error) {
	candidates := NormalizeIngredients(ingredients)
	if len(candidates) == 0 {
		return []string{}, nil
	}

	var out types.IngredientList
	if err := s.llm.CompleteStructured(ctx, OpClean, "ingredient_list", cleanMessages(candidates), &out); err != nil {
		return nil, fmt.Errorf("failed to clean ingredients: %w", err)
	}

	cleaned := NormalizeIngredients(out.Ingredients)
	s.logger.Debug().Int("in", len(candidates)).Int("out", len(cleaned)).Msg("cleaned ingredients")
	return cleaned, nil
}
