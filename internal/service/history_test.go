package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageza/fridge2fork/backend/internal/models"
)

func newHistoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every new connection to :memory: would see an empty database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.GenerationRecord{}))
	return db
}

func TestHistoryService_RecordAndRecent(t *testing.T) {
	svc := NewHistoryService(newHistoryDB(t), zerolog.Nop())
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(ctx, &models.GenerationRecord{
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Requested: i + 1,
			Returned:  i,
			Diet:      "Vegan",
			Cuisine:   "Asian",
			Status:    models.GenerationSucceeded,
		}))
	}

	records, err := svc.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].Requested)
	assert.Equal(t, 2, records[1].Requested)
	assert.NotEqual(t, records[0].ID, records[1].ID)

	all, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistoryService_Disabled(t *testing.T) {
	svc := NewHistoryService(nil, zerolog.Nop())
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Record(context.Background(), &models.GenerationRecord{}))

	records, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
