package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/military-registry/personnel-api/docs"
	"github.com/military-registry/personnel-api/internal/api"
	"github.com/military-registry/personnel-api/internal/api/handler"
	"github.com/military-registry/personnel-api/internal/core/service"
	mongostore "github.com/military-registry/personnel-api/internal/infrastructure/db/mongo"
	redisstore "github.com/military-registry/personnel-api/internal/infrastructure/db/redis"
	"github.com/military-registry/personnel-api/internal/infrastructure/queue"
	"github.com/military-registry/personnel-api/internal/infrastructure/security"
	"github.com/military-registry/personnel-api/internal/pkg/config"
	"github.com/military-registry/personnel-api/pkg/logger"
)

// @title                       Military Personnel Registry API
// @version                     1.0
// @description                 Personnel records with token authentication and role-based access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "personnel-api",
		Env:     cfg.Env,
	})

	tokens, err := service.NewTokenService(cfg.JWTSecret)
	if err != nil {
		log.Error().Err(err).Msg("token service")
		return 1
	}

	// --- Stores ---
	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "personnel-api",
	})
	if err != nil {
		log.Error().Err(err).Msg("mongodb unavailable")
		return 1
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		log.Error().Err(err).Msg("failed to create indexes")
		_ = client.Disconnect(context.Background())
		return 1
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error().Err(err).Msg("redis unavailable")
		_ = client.Disconnect(context.Background())
		return 1
	}

	users := mongostore.NewUserRepository(db)
	records := mongostore.NewPersonnelRepository(db)
	audits := mongostore.NewAuditRepository(db)

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, audits, logger.Component("audit"))
	dispatcher.Start(ctx)

	// --- Services ---
	authService := service.NewAuthService(users, security.NewBcryptHasher(bcrypt.DefaultCost), tokens, logger.Component("auth"))
	if err := authService.EnsureDefaultAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Error().Err(err).Msg("failed to create default admin")
	}

	e := api.NewRouter(api.Deps{
		Log:       logger.Component("http"),
		Tokens:    tokens,
		Users:     users,
		Auth:      authService,
		Accounts:  service.NewUserService(users, logger.Component("users")),
		Personnel: service.NewPersonnelService(records, audits, dispatcher, redisstore.NewStatsCache(rdb, cfg.Redis.StatsTTL), logger.Component("personnel")),
		Checks: map[string]handler.DependencyCheck{
			"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("http server failed")
		code = 1
	}

	return shutdown(log, cfg, e.Shutdown, dispatcher, rdb, client, code)
}

// shutdown drains in-flight requests, then pending audit events, then closes
// the stores. A failed Mongo disconnect makes the exit code 1.
func shutdown(log zerolog.Logger, cfg *config.Config, stopHTTP func(context.Context) error, dispatcher *queue.Dispatcher, rdb *redis.Client, client *mongo.Client, code int) int {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := stopHTTP(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	dispatcher.Stop()

	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}

	if err := client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongodb disconnect")
		return 1
	}

	log.Info().Msg("shutdown complete")
	return code
}
