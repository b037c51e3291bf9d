package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"leilaoai/internal/ratelimit"
	"leilaoai/internal/util"
	"leilaoai/pkg/ai"
	"leilaoai/pkg/events"
	"leilaoai/pkg/storage"
	"leilaoai/services/portal/internal/app"
	"leilaoai/services/portal/internal/config"
	"leilaoai/services/portal/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel, cfg.LogFormat)

	llmTimeout, err := config.ParseLLMTimeout(cfg.LLMTimeout)
	if err != nil {
		log.Fatalf("failed to parse llm timeout: %v", err)
	}
	generator, err := ai.NewGenerator(ai.ProviderConfig{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
		Model:    cfg.LLMModel,
		Timeout:  llmTimeout,
	})
	if err != nil {
		log.Fatalf("failed to init llm provider: %v", err)
	}
	if generator == nil {
		logger.Warn("llm api key not set; analysis endpoints will answer not configured")
	}

	var (
		bus     events.Bus = events.NewLocalBus()
		limiter *ratelimit.Limiter
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		redisBus, err := events.NewRedisBus(rdb, cfg.EventsChannel)
		if err != nil {
			log.Fatalf("failed to init event bus: %v", err)
		}
		bus = redisBus
		if cfg.LLMRateLimitPerMinute > 0 {
			limiter, err = ratelimit.New(rdb, "", cfg.LLMRateLimitPerMinute, time.Minute)
			if err != nil {
				log.Fatalf("failed to init rate limiter: %v", err)
			}
		}
	}
	defer bus.Close()

	appConfig := app.Config{
		DatabaseURL: cfg.DatabaseURL,
		Minio: storage.MinioConfig{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MinioPublicBaseURL,
			PublicRead:    true,
		},
		ExtractionWorkers: cfg.ExtractionWorkers,
		PdftotextPath:     cfg.PdftotextPath,
		Generator:         generator,
		OLXBaseURL:        cfg.OLXBaseURL,
		Events:            bus,
		Logger:            logger,
	}
	appCore, err := app.New(appConfig)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}
	httpServer, err := server.New(server.Config{
		App:            appCore,
		Limiter:        limiter,
		TrustedProxies: trusted,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	// Pipeline requests wait on the LLM; the event stream clears its own
	// write deadline.
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	slog.Info("portal server listening", "addr", addr, "ai", appCore.AIConfigured())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
