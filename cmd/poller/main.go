// The poller binary is the bounded-loop deployment of the status poller: it
// scans jobs stuck in generating and polls the prediction service for each on
// a fixed interval, so callers that never re-poll still get a terminal state
// recorded.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vidgen/internal/adapter/repo"
	"vidgen/internal/domain"
	"vidgen/internal/infra"
	"vidgen/internal/pipeline"
	"vidgen/internal/providers/predict"
)

const scanBatchSize = 50

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fallback := infra.NewLogger("production")
		fallback.Fatal().Err(err).Msg("poller: invalid configuration")
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("poller: db connection failed")
	}
	defer pool.Close()

	jobs := repo.NewJobRepository(pool)

	predictor, err := predict.NewReplicateClient(predict.ReplicateOptions{
		APIToken:   cfg.PredictAPIToken,
		BaseURL:    cfg.PredictBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.PredictTimeout},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("poller: failed to configure prediction client")
	}

	poller := pipeline.NewPoller(pipeline.PollerOptions{
		Jobs:        jobs,
		Predictor:   predictor,
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
		Logger:      logger,
	})

	logger.Info().Dur("interval", cfg.PollInterval).Msg("poller started")

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("poller stopped")
			return
		case <-ticker.C:
			scanOnce(ctx, jobs, poller, logger)
		}
	}
}

// scanOnce polls every generating job single-shot. Each tick is independent;
// a job that stays non-terminal is simply picked up again on the next tick.
func scanOnce(ctx context.Context, jobs domain.JobRepository, poller *pipeline.Poller, logger infra.Logger) {
	generating, err := jobs.ListGenerating(ctx, scanBatchSize)
	if err != nil {
		logger.Error().Err(err).Msg("poller: list generating jobs")
		return
	}
	for _, job := range generating {
		result, err := poller.Poll(ctx, job.PredictionID)
		if err != nil {
			logger.Warn().Err(err).Str("job_id", job.ID).Msg("poller: poll failed")
			continue
		}
		if result.Status.Terminal() {
			logger.Info().
				Str("job_id", job.ID).
				Str("prediction_id", job.PredictionID).
				Str("status", string(result.Status)).
				Msg("poller: job reached terminal state")
		}
	}
}
