package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"watson-sdk/internal/config"
	"watson-sdk/internal/db"
	apihttp "watson-sdk/internal/http"
	applog "watson-sdk/internal/logger"
	"watson-sdk/internal/repository"
	"watson-sdk/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadServerConfig()
	if err != nil {
		panic(err)
	}

	logger := applog.New(cfg.LogLevel)
	defer logger.Sync()

	var (
		classifierRepo repository.ClassifierRepository
		limiter        service.RequestLimiter
		redisClient    *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
			redisClient = nil
		}
		cancel()
	}

	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		pgRepo := repository.NewPgClassifierRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		classifierRepo = pgRepo
		logger.Info("using postgres classifier store")
	case redisClient != nil:
		classifierRepo = repository.NewRedisClassifierRepository(redisClient)
		logger.Info("using redis classifier store")
	default:
		classifierRepo = repository.NewMemoryClassifierRepository()
		logger.Info("using in-memory classifier store")
	}

	if cfg.RequestLimit > 0 {
		if redisClient != nil {
			limiter = service.NewRedisRequestLimiter(redisClient, cfg.RequestWindow, cfg.RequestLimit)
		} else {
			limiter = service.NewMemoryRequestLimiter(cfg.RequestWindow, cfg.RequestLimit)
		}
	}

	creds, err := service.NewCredentials(cfg.Username, cfg.Password)
	if err != nil {
		logger.Fatal("mock credentials", zap.Error(err))
	}
	tokenSvc := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	classifierSvc := service.NewClassifierService(classifierRepo, cfg.TrainingDuration, logger)
	profileSvc := service.NewProfileService(logger)

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Logger:      logger,
		Credentials: creds,
		Tokens:      tokenSvc,
		Limiter:     limiter,
		Classifiers: apihttp.NewClassifierHandler(logger, classifierSvc),
		Profiles:    apihttp.NewProfileHandler(logger, profileSvc),
		TokenH:      apihttp.NewTokenHandler(logger, tokenSvc),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting mock watson", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
