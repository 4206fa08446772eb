package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vidgen/internal/domain"
	"vidgen/internal/providers/predict"
	"vidgen/internal/telemetry"
)

// Poller observes an external prediction and records terminal outcomes onto
// the job row. Poll is single-shot; WaitForTerminal is the bounded-loop mode
// used by the background poller binary.
type Poller struct {
	jobs        domain.JobRepository
	predictor   predict.Service
	interval    time.Duration
	maxAttempts int
	logger      zerolog.Logger
}

type PollerOptions struct {
	Jobs      domain.JobRepository
	Predictor predict.Service
	// Interval and MaxAttempts bound WaitForTerminal. Defaults: 6s, 32.
	Interval    time.Duration
	MaxAttempts int
	Logger      zerolog.Logger
}

func NewPoller(opts PollerOptions) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = 6 * time.Second
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 32
	}
	return &Poller{
		jobs:        opts.Jobs,
		predictor:   opts.Predictor,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      opts.Logger,
	}
}

// PollResult is the normalized status reported to callers.
type PollResult struct {
	PredictionID string
	Status       domain.JobStatus
	Output       []string
	VideoURL     string
	ErrorMessage string
	// Stored is true when the result came from the persisted terminal state
	// and no external query was made.
	Stored bool
}

// Poll performs a single status query. A job already in a terminal state is
// answered from storage without touching the external service, so expired
// external records cannot flap a finished job.
func (p *Poller) Poll(ctx context.Context, predictionID string) (*PollResult, error) {
	predictionID = strings.TrimSpace(predictionID)
	if predictionID == "" {
		return nil, fmt.Errorf("%w: predictionId is required", domain.ErrValidation)
	}
	telemetry.Polls.Inc()

	job, err := p.jobs.GetByPredictionID(ctx, predictionID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load job for prediction %s: %w", predictionID, err)
	}
	if job != nil && job.Status.Terminal() {
		telemetry.PollCacheHits.Inc()
		return &PollResult{
			PredictionID: predictionID,
			Status:       job.Status,
			VideoURL:     job.VideoURL,
			ErrorMessage: job.ErrorMessage,
			Stored:       true,
		}, nil
	}

	prediction, err := p.predictor.Get(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("%w: query prediction: %v", domain.ErrUpstream, err)
	}

	result := &PollResult{
		PredictionID: predictionID,
		Status:       statusFromPrediction(prediction.Status),
		Output:       prediction.Output,
		VideoURL:     prediction.VideoURL(),
		ErrorMessage: prediction.Error,
	}

	switch result.Status {
	case domain.JobStatusSucceeded:
		if job != nil {
			if err := p.jobs.MarkTerminal(ctx, job.ID, domain.JobStatusSucceeded, result.VideoURL, ""); err != nil {
				return nil, fmt.Errorf("persist success: %w", err)
			}
		}
		telemetry.VideosSucceeded.Inc()
	case domain.JobStatusFailed:
		if result.ErrorMessage == "" {
			result.ErrorMessage = "generation " + string(prediction.Status)
		}
		if job != nil {
			if err := p.jobs.MarkTerminal(ctx, job.ID, domain.JobStatusFailed, "", result.ErrorMessage); err != nil {
				return nil, fmt.Errorf("persist failure: %w", err)
			}
		}
		telemetry.VideosFailed.Inc()
	}

	return result, nil
}

// WaitForTerminal polls at a fixed interval until the prediction reaches a
// terminal state or the attempt ceiling is hit. Exhausting the budget marks
// the job failed and surfaces a timeout; the job is never left silently
// generating by this path.
func (p *Poller) WaitForTerminal(ctx context.Context, predictionID string) (*PollResult, error) {
	var last *PollResult
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(p.interval):
			}
		}
		result, err := p.Poll(ctx, predictionID)
		if err != nil {
			return last, err
		}
		last = result
		if result.Status.Terminal() {
			return result, nil
		}
	}

	message := fmt.Sprintf("no terminal state after %d attempts", p.maxAttempts)
	if job, err := p.jobs.GetByPredictionID(ctx, predictionID); err == nil {
		if err := p.jobs.MarkTerminal(ctx, job.ID, domain.JobStatusFailed, "", message); err != nil {
			p.logger.Error().Err(err).Str("prediction_id", predictionID).Msg("failed to record poll timeout")
		}
		telemetry.VideosFailed.Inc()
	}
	return last, fmt.Errorf("%w: %s", domain.ErrTimeout, message)
}

func statusFromPrediction(s predict.Status) domain.JobStatus {
	switch s {
	case predict.StatusSucceeded:
		return domain.JobStatusSucceeded
	case predict.StatusFailed, predict.StatusCanceled:
		return domain.JobStatusFailed
	default:
		return domain.JobStatusGenerating
	}
}
