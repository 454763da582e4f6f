package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/config"
	"masterboxer.com/project-instaclone/logger"
	"masterboxer.com/project-instaclone/store"
	"masterboxer.com/project-instaclone/store/memory"
	"masterboxer.com/project-instaclone/store/postgres"
)

//go:embed schema.sql
var schema string

// ConnectDB opens the Postgres pool and verifies it answers
func ConnectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Get().Info("Connected to database",
		zap.Int("max_open_conns", cfg.DBMaxOpenConns),
		zap.Int("max_idle_conns", cfg.DBMaxIdleConns),
	)
	return db, nil
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// OpenStore builds the store selected by cfg.StoreDriver. The returned close
// function releases the underlying connection pool.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Get().Warn("Using in-memory store, data is lost on restart")
		return memory.New(), func() error { return nil }, nil

	case config.StoreDriverPostgres:
		db, err := ConnectDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.New(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
