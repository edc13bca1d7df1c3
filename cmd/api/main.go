package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/smeazy/invoicing-backend/api/routes"
	"github.com/smeazy/invoicing-backend/internal/auth"
	"github.com/smeazy/invoicing-backend/internal/identity"
	"github.com/smeazy/invoicing-backend/internal/invoices"
	"github.com/smeazy/invoicing-backend/internal/notify"
	"github.com/smeazy/invoicing-backend/internal/stats"
	"github.com/smeazy/invoicing-backend/pkg/auth/session"
	"github.com/smeazy/invoicing-backend/pkg/config"
	"github.com/smeazy/invoicing-backend/pkg/db"
	"github.com/smeazy/invoicing-backend/pkg/logger"
	"github.com/smeazy/invoicing-backend/pkg/metrics"
	"github.com/smeazy/invoicing-backend/pkg/migrate"
	"github.com/smeazy/invoicing-backend/pkg/redis"
	"github.com/smeazy/invoicing-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	closeClients := func() {
		err := multierr.Combine(dbClient.Close(), redisClient.Close())
		if err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		closeClients()
		os.Exit(1)
	}

	hasher, err := security.NewHasher(cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create password hasher", err)
		closeClients()
		os.Exit(1)
	}

	identityRepo := identity.NewRepository(dbClient.DB())
	statsRepo := stats.NewRepository(dbClient.DB())
	invoiceRepo := invoices.NewRepository(dbClient.DB())

	statsService, err := stats.NewService(statsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		closeClients()
		os.Exit(1)
	}

	identityService, err := identity.NewService(identity.ServiceParams{
		DB:                 dbClient,
		Repo:               identityRepo,
		StatsRepo:          statsRepo,
		Hasher:             hasher,
		TempPasswordLength: cfg.Password.TempPasswordLength,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		closeClients()
		os.Exit(1)
	}

	var notifier invoices.Notifier
	if cfg.SMS.Enabled {
		channel, err := notify.NewAfricasTalkingChannel(cfg.SMS)
		if err != nil {
			logg.Error(context.Background(), "failed to create sms channel", err)
			closeClients()
			os.Exit(1)
		}
		notifier = notify.NewDispatcher(notify.DispatcherParams{
			Channel:     channel,
			CountryCode: cfg.SMS.CountryCode,
			Logger:      logg,
		})
	}

	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		DB:          dbClient,
		Repo:        invoiceRepo,
		Users:       identityRepo,
		Provisioner: identityService,
		Stats:       statsService,
		Notifier:    notifier,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		closeClients()
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:          identityRepo,
		Identity:       identityService,
		Verifier:       hasher,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		closeClients()
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			identityService,
			statsService,
			invoiceService,
			httpMetrics,
		),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			closeClients()
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	closeClients()
	logg.Info(ctx, "api server stopped")
}
