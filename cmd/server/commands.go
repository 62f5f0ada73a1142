package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/grapeapp/grape-backend/internal/config"
	"github.com/grapeapp/grape-backend/internal/infrastructure/container"
	"github.com/grapeapp/grape-backend/internal/infrastructure/database"
	"github.com/grapeapp/grape-backend/internal/logger"
	"github.com/grapeapp/grape-backend/internal/repository/postgres"
)

var (
	cfg *config.Config

	migrateSteps int
	seedCount    int

	rootCmd = &cobra.Command{
		Use:           "grape-server",
		Short:         "Grape dating API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.InitFromConfig(cfg)
			return nil
		},
		RunE: runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), database.MigrateUp)
		},
	}
	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if migrateSteps < 1 {
				return errors.New("--steps must be at least 1")
			}
			return withDB(cmd.Context(), func(db *sqlx.DB) error {
				return database.MigrateDown(db, migrateSteps)
			})
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users with likes, a match and messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *sqlx.DB) error {
				users, err := seed(cmd.Context(), postgres.NewStore(db), seedCount)
				if err != nil {
					return err
				}
				logger.Info("seeding completed", "users", len(users))
				return nil
			})
		},
	}
)

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	seedCmd.Flags().IntVar(&seedCount, "count", 10, "number of demo users")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := container.NewContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("error closing application", "error", err)
		}
	}()

	app.RunBackground(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	return app.Server.Shutdown(context.Background())
}

// withDB opens PostgreSQL without running migrations and closes it afterwards.
func withDB(ctx context.Context, fn func(db *sqlx.DB) error) error {
	if cfg.Storage.Type != config.StorageTypePostgres {
		return fmt.Errorf("command requires STORAGE_TYPE=%s", config.StorageTypePostgres)
	}
	dbCfg := cfg.Database
	dbCfg.AutoMigrate = false

	db, err := database.NewPostgresDB(ctx, &dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}
