package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageza/fridge2fork/backend/config"
)

// New opens the generation history database. Postgres is used when
// DB_HOST is set, sqlite at SQLITE_PATH otherwise. It returns nil, nil
// when neither is configured.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch {
	case cfg.DBHost != "":
		log.Info().Str("host", cfg.DBHost).Str("port", cfg.DBPort).Str("user", cfg.DBUser).Msg("connecting to postgres")
		db, err := gorm.Open(postgres.Open(PostgresDSN(cfg)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("error opening database: %w", err)
		}
		if err := configurePool(db, 25); err != nil {
			_ = Close(db)
			return nil, err
		}
		return db, nil

	case cfg.SQLitePath != "":
		log.Info().Str("path", cfg.SQLitePath).Msg("opening sqlite database")
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("error opening database: %w", err)
		}
		// sqlite allows a single writer; :memory: also needs one shared connection
		if err := configurePool(db, 1); err != nil {
			_ = Close(db)
			return nil, err
		}
		return db, nil
	}

	return nil, nil
}

// PostgresDSN builds the connection string for cfg
func PostgresDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)
}

func configurePool(db *gorm.DB, maxOpen int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("error connecting to the database: %w", err)
	}
	return nil
}

// HealthCheck checks if the database is accessible
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
