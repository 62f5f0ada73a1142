package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/grapeapp/grape-backend/internal/config"
	"github.com/grapeapp/grape-backend/internal/logger"
)

// NewPostgresDB opens the pool, verifies connectivity and optionally applies migrations.
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(50)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("connected to postgres", "host", cfg.Host, "db", cfg.DBName)

	if cfg.AutoMigrate {
		if err := MigrateUp(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}
