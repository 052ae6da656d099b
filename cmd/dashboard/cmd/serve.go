package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/99minutos/account-dashboard/internal/api"
	"github.com/99minutos/account-dashboard/internal/api/handler"
	"github.com/99minutos/account-dashboard/internal/core/ports"
	"github.com/99minutos/account-dashboard/internal/core/service"
	mongodb "github.com/99minutos/account-dashboard/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/account-dashboard/internal/infrastructure/db/redis"
	"github.com/99minutos/account-dashboard/internal/infrastructure/identity"
	"github.com/99minutos/account-dashboard/internal/infrastructure/notify"
	"github.com/99minutos/account-dashboard/internal/infrastructure/queue"
	"github.com/99minutos/account-dashboard/internal/pkg/config"
	"github.com/99minutos/account-dashboard/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	janitorInterval = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the account dashboard HTTP server.

The server connects to MongoDB and Redis, ensures the MongoDB indexes,
starts the per-client event loops and serves the API until SIGINT or
SIGTERM, then shuts down gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := logger.Init(logger.OptionsFor(cfg.Env, cfg.LogLevel, "account-dashboard"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:      cfg.Redis.Addr,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		PoolSize:  cfg.Redis.PoolSize,
		OpTimeout: cfg.Redis.OpTimeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	profiles := mongodb.NewProfileRepository(db)
	auth := service.NewAuthService(
		mongodb.NewAuthRepository(db),
		profiles,
		redisstore.NewSessionRegistry(rdb),
		cfg.JWTSecret,
		cfg.Session.TTL,
	)

	dispatcher := queue.NewDispatcher(cfg.Dispatch.Workers, log)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	registry := service.NewRegistry(
		dashboardFactory(auth, profiles, dispatcher, log),
		cfg.Session.ClientIdleTTL,
		log,
		service.WithMaxClients(cfg.Session.MaxClients),
	)
	registry.StartJanitor(ctx, janitorInterval)
	defer registry.Stop()

	health := handler.NewHealthHandler(map[string]handler.Pinger{
		"mongodb": handler.PingFunc(func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		}),
		"redis": handler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}),
	})

	e := api.NewRouter(api.RouterDeps{
		Auth:         auth,
		Clients:      registry,
		Health:       health,
		LoginRate:    cfg.Session.LoginRate,
		SecureCookie: !cfg.IsDevelopment(),
		Log:          log,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// dashboardFactory wires one client's dashboard onto its dispatcher shard.
func dashboardFactory(
	auth ports.AuthService,
	profiles ports.ProfileRepository,
	dispatcher *queue.Dispatcher,
	log zerolog.Logger,
) service.DashboardFactory {
	sink := notify.NewLogNotifier(log)
	return func(clientID, bootstrapToken string) *service.Dashboard {
		clientLog := log.With().Str("client_id", clientID).Logger()
		return service.NewDashboard(clientID, service.DashboardDeps{
			Identity:  identity.NewClient(auth, bootstrapToken, clientLog),
			Profiles:  profiles,
			Scheduler: dispatcher.Scheduler(clientID),
			Notifier:  sink,
			Inbox:     notify.NewInbox(0),
			Log:       clientLog,
		})
	}
}
