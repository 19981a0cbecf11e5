package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"study-backend/auth"
	"study-backend/controllers"
	"study-backend/eventhandlers"
	"study-backend/models"
	"study-backend/routes"
	"study-backend/services"
	"study-backend/store"
)

const shutdownTimeout = 10 * time.Second

var skipPrestart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API on APP_HOST:APP_PORT.

Unless --skip-prestart is given the database wait, migrations and superuser
seed run first. The server stops cleanly on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipPrestart, "skip-prestart", false, "connect without waiting for the database or migrating")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	var pool *pgxpool.Pool
	if skipPrestart {
		pool, err = store.Connect(ctx, cfg)
	} else {
		pool, err = prestart(ctx, cfg, log)
	}
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().Str("database", cfg.PostgresServer).Msg("connected to PostgreSQL")

	tokens, err := auth.NewTokenManager(cfg.SecretKey, cfg.Algorithm, time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute)
	if err != nil {
		return err
	}

	base := store.New(pool)
	events := eventhandlers.NewPublisher(cfg.KafkaBroker, cfg.KafkaEventsTopic, log)
	defer events.Close()

	deps := routes.Deps{
		Config:  cfg,
		Log:     log,
		Store:   base,
		Tokens:  tokens,
		Events:  events,
		Users:   services.NewUserService(log),
		Reports: services.NewReportService(cfg.ReportsDir),
	}
	if cfg.DBRoleSessions {
		deps.Sessions = controllers.RoleSessions(func(ctx context.Context, user *models.User) (*store.RoleSession, error) {
			return store.OpenRoleSession(ctx, pool, user, log)
		})
		deps.RemoveUser = base.DeleteUserAndRole
	}

	if cfg.KafkaBroker != "" {
		kafkaHandler := eventhandlers.NewKafkaHandler([]string{cfg.KafkaBroker}, cfg.KafkaChecksTopic, cfg.KafkaGroupID, base, events, log)
		go kafkaHandler.Start(ctx)
	}

	app := routes.New(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr()).Str("version", cfg.Version()).Msg("listening")
		errCh <- app.Listen(cfg.ListenAddr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
