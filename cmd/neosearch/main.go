package main

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/apolzek/neosearch/internal/config"
	"github.com/apolzek/neosearch/internal/handler"
	"github.com/apolzek/neosearch/internal/middleware"
	"github.com/apolzek/neosearch/internal/ratelimit"
	"github.com/apolzek/neosearch/internal/registryhash"
	"github.com/apolzek/neosearch/internal/repository"
	"github.com/apolzek/neosearch/internal/service"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	sugar.Infow("Starting NeoSearch registry service")

	cfg, err := config.ParseFlags()
	if err != nil {
		sugar.Fatalw("Configuration error",
			"error", err.Error())
	}

	sugar.Infow("Configuration loaded",
		"server_address", cfg.ServerAddress,
		"database", cfg.DatabaseDSN != "",
		"redis", cfg.RedisAddr != "",
		"categories", len(cfg.Categories),
	)

	var store repository.Store
	if cfg.DatabaseDSN != "" {
		pgStore, err := repository.NewPostgresStore(cfg.DatabaseDSN)
		if err != nil {
			sugar.Fatalw("Failed to initialize PostgreSQL store",
				"error", err.Error())
		}
		store = pgStore
	} else {
		sugar.Infow("No database DSN, using in-memory store")
		store = repository.NewMemoryStore()
	}
	defer store.Close()

	var limiter ratelimit.Counter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = ratelimit.NewRedisCounter(client, cfg.ImportRate, cfg.RateWindow)
		sugar.Infow("Using Redis import rate counter", "addr", cfg.RedisAddr)
	} else {
		limiter = ratelimit.NewMemoryCounter(cfg.ImportRate, cfg.RateWindow)
	}

	hashAlg, err := registryhash.ParseAlgorithm(cfg.HashAlgorithm)
	if err != nil {
		sugar.Fatalw("Configuration error",
			"error", err.Error())
	}

	registryService := service.NewRegistryService(store, limiter, logger, service.Options{
		HashAlgorithm:  hashAlg,
		FuzzyThreshold: cfg.FuzzyThreshold,
		ImportMaxItems: cfg.ImportMaxItems,
		ImportMaxBytes: cfg.ImportMaxBytes,
		QuotaPerOwner:  cfg.QuotaPerOwner,
		FetchTimeout:   cfg.FetchTimeout,
		Categories:     cfg.Categories,
	})

	auth := middleware.NewAuthMiddleware(cfg.SecretKey, logger)

	h := handler.NewHandler(registryService, logger, auth)
	r := h.SetupRouter()

	sugar.Infow("Server starting",
		"address", cfg.ServerAddress,
	)

	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		sugar.Fatalw(err.Error(), "event", "start server")
	}
}
