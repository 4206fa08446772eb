package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vidgen/internal/adapter/repo"
	"vidgen/internal/http/handlers"
	"vidgen/internal/http/httpapi"
	"vidgen/internal/infra"
	"vidgen/internal/pipeline"
	"vidgen/internal/providers/describe"
	"vidgen/internal/providers/predict"
	"vidgen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fallback := infra.NewLogger("production")
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	if err := repo.RunMigrations(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}
	jobs := repo.NewJobRepository(pool)

	store, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	describer, err := newDescriber(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure describer")
	}

	predictor, err := predict.NewReplicateClient(predict.ReplicateOptions{
		APIToken:   cfg.PredictAPIToken,
		BaseURL:    cfg.PredictBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.PredictTimeout},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure prediction client")
	}

	profiles := predict.Profiles{
		Standard: cfg.ModelVersionStandard,
		High:     cfg.ModelVersionHigh,
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.OrchestratorOptions{
		Jobs:      jobs,
		Store:     store,
		Describer: describer,
		Predictor: predictor,
		Profiles:  profiles,
		SignTTL:   cfg.SignURLTTL,
		Logger:    logger,
	})
	poller := pipeline.NewPoller(pipeline.PollerOptions{
		Jobs:        jobs,
		Predictor:   predictor,
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
		Logger:      logger,
	})

	app := handlers.NewApp(orchestrator, poller, logger)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newStore(ctx context.Context, cfg *infra.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "filesystem":
		return storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	default:
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	}
}

func newDescriber(cfg *infra.Config, logger infra.Logger) (describe.Describer, error) {
	client := &http.Client{Timeout: cfg.DescribeTimeout}
	switch cfg.DescribeProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Warn().Msg("OPENAI_API_KEY missing, descriptions fall back to the static prompt")
			return describe.NewStaticDescriber(), nil
		}
		return describe.NewOpenAIDescriber(describe.OpenAIOptions{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: client,
		})
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			logger.Warn().Msg("GEMINI_API_KEY missing, descriptions fall back to the static prompt")
			return describe.NewStaticDescriber(), nil
		}
		return describe.NewGeminiDescriber(describe.GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: client,
		})
	default:
		return describe.NewStaticDescriber(), nil
	}
}
