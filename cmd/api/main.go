package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mirage/internal/domain"
	"mirage/internal/http/handlers"
	"mirage/internal/http/httpapi"
	"mirage/internal/infra"
	"mirage/internal/providers/image"
	"mirage/internal/providers/relay"
	"mirage/internal/service"
	"mirage/internal/store"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobStore, relayStore, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.JobStore).Msg("failed to initialize job store")
	}
	defer cleanup()

	registry := buildRegistry(cfg, logger)

	jobs := service.NewGenerator(jobStore, registry, logger, cfg.ProviderTimeout)

	var submitter relay.Submitter
	if s, err := relay.NewQStashSubmitter(relay.QStashOptions{
		BaseURL:      cfg.QStashBaseURL,
		Token:        cfg.QStashToken,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	}); err != nil {
		logger.Warn().Err(err).Msg("relay dispatch unavailable")
	} else {
		submitter = s
	}
	relaySvc := service.NewRelay(submitter, relayStore, logger, cfg.CallbackURL())

	sweeper := service.NewSweeper(jobStore, logger, cfg.SweepInterval, cfg.JobRetention)
	go sweeper.Run(ctx)

	app := handlers.NewApp(logger, jobs, relaySvc)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Strs("providers", registry.Tags()).Msg("API listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildStores selects the job and relay store backends per JOB_STORE.
// Every other component sees only the domain interfaces.
func buildStores(ctx context.Context, cfg *infra.Config, logger infra.Logger) (domain.JobStore, domain.RelayStore, func(), error) {
	switch cfg.JobStore {
	case infra.StoreRedis:
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() { _ = client.Close() }
		return store.NewRedis(client, cfg.JobRetention), store.NewRedisRelay(client, cfg.JobRetention), cleanup, nil

	case infra.StorePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		// Relay payloads stay in-process; they are short-lived poll fodder.
		return pg, store.NewMemoryRelay(), pool.Close, nil

	default:
		logger.Debug().Msg("using in-memory job store")
		return store.NewMemory(), store.NewMemoryRelay(), func() {}, nil
	}
}

// buildRegistry registers every provider the configuration can support and
// records the rest as unavailable so their absence surfaces per-request,
// not at startup.
func buildRegistry(cfg *infra.Config, logger infra.Logger) *image.Registry {
	registry := image.NewRegistry()

	if gemini, err := image.NewGeminiGenerator(image.GeminiOptions{
		BaseURL: cfg.GeminiBaseURL,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.ProviderTimeout,
	}); err != nil {
		logger.Warn().Err(err).Msg("gemini provider unavailable")
		registry.RegisterUnavailable("gemini", err)
	} else {
		registry.Register("gemini", gemini)
	}

	if openai, err := image.NewOpenAIGenerator(image.OpenAIOptions{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Timeout: cfg.ProviderTimeout,
	}); err != nil {
		logger.Warn().Err(err).Msg("openai provider unavailable")
		registry.RegisterUnavailable("openai", err)
	} else {
		registry.Register("openai", openai)
	}

	return registry
}
