package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Generation statuses
const (
	GenerationSucceeded = "success"
	GenerationFailed    = "failed"
)

// GenerationRecord is the metadata kept for one recipe generation request.
// Recipe bodies and images are never stored.
type GenerationRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	Requested       int       `gorm:"not null" json:"requested"`
	Returned        int       `gorm:"not null" json:"returned"`
	WithImages      int       `gorm:"not null" json:"with_images"`
	IngredientCount int       `gorm:"not null" json:"ingredient_count"`
	Diet            string    `json:"diet"`
	Cuisine         string    `json:"cuisine"`
	Status          string    `gorm:"not null;default:'success'" json:"status"` // success, failed
	Error           string    `gorm:"type:text" json:"error,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
}

// TableName returns the table name for the GenerationRecord model
func (GenerationRecord) TableName() string {
	return "generations"
}

// BeforeCreate assigns an ID on databases without uuid defaults
func (r *GenerationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
