package main

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/fridge2fork/backend/config"
	"github.com/pageza/fridge2fork/backend/internal/database"
	"github.com/pageza/fridge2fork/backend/internal/models"
)

func TestRunMigrateAndRollback(t *testing.T) {
	cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "history.db")}

	require.NoError(t, run(cfg, zerolog.Nop(), false))
	assert.True(t, hasHistoryTable(t, cfg))

	require.NoError(t, run(cfg, zerolog.Nop(), true))
	assert.False(t, hasHistoryTable(t, cfg))
}

func TestRunWithoutDatabase(t *testing.T) {
	err := run(&config.Config{}, zerolog.Nop(), false)
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestRunConnectFailure(t *testing.T) {
	cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "missing", "history.db")}
	err := run(cfg, zerolog.Nop(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func hasHistoryTable(t *testing.T, cfg *config.Config) bool {
	t.Helper()
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer database.Close(db)
	return db.Migrator().HasTable(&models.GenerationRecord{})
}
