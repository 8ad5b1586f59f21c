package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pageza/fridge2fork/backend/internal/models"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryService stores generation metadata. With a nil database every
// call is a no-op.
type HistoryService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewHistoryService(db *gorm.DB, logger zerolog.Logger) *HistoryService {
	return &HistoryService{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Enabled reports whether records are persisted
func (s *HistoryService) Enabled() bool {
	return s != nil && s.db != nil
}

func (s *HistoryService) Record(ctx context.Context, record *models.GenerationRecord) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// Recent returns the newest records first. limit is clamped to
// 1..MaxHistoryLimit, zero or less meaning DefaultHistoryLimit.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	records := []models.GenerationRecord{}
	if !s.Enabled() {
		return records, nil
	}

	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	if err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return records, nil
}
