package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"study-backend/config"
	"study-backend/services"
	"study-backend/store"
)

const pingTimeout = 5 * time.Second

var prestartCmd = &cobra.Command{
	Use:   "prestart",
	Short: "Wait for the database, apply migrations and seed the first superuser",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		pool, err := prestart(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		pool.Close()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prestartCmd)
}

// prestart runs the steps every start needs before serving and returns the
// open pool.
func prestart(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	if _, err := store.WaitForDatabase(ctx, store.URLPing(cfg.DatabaseURL(), pingTimeout), cfg.PrestartMaxTries, cfg.PrestartWait, log); err != nil {
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	if err := migrateUp(cfg, log); err != nil {
		return nil, err
	}

	p, err := store.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	users := services.NewUserService(log)
	if err := users.EnsureSuperuser(ctx, store.New(p), cfg.FirstSuperuser, cfg.FirstSuperuserPassword); err != nil {
		p.Close()
		return nil, fmt.Errorf("seed superuser: %w", err)
	}
	return p, nil
}

func migrateUp(cfg *config.Config, log zerolog.Logger) error {
	mg, err := store.NewMigrator(cfg.DatabaseURL(), log)
	if err != nil {
		return err
	}
	defer mg.Close()
	if err := mg.Up(); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
