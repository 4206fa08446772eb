// Package pipeline holds the job state machine: the Orchestrator moves a job
// from pending to generating, the Poller observes the external prediction
// until a terminal state and records the outcome. The two are connected only
// through the persisted job row.
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vidgen/internal/domain"
	"vidgen/internal/providers/describe"
	"vidgen/internal/providers/predict"
	"vidgen/internal/storage"
	"vidgen/internal/telemetry"
)

// Orchestrator performs one submission: upload, sign, describe, predict,
// persist. Every outbound call is sequential; there is no rollback across
// steps, resubmission with the same filename overwrites the stored image.
type Orchestrator struct {
	jobs      domain.JobRepository
	store     storage.Store
	describer describe.Describer
	predictor predict.Service
	profiles  predict.Profiles
	signTTL   time.Duration
	logger    zerolog.Logger
}

// OrchestratorOptions configures an Orchestrator. All collaborators are
// required except SignTTL, which defaults to ten minutes.
type OrchestratorOptions struct {
	Jobs      domain.JobRepository
	Store     storage.Store
	Describer describe.Describer
	Predictor predict.Service
	Profiles  predict.Profiles
	SignTTL   time.Duration
	Logger    zerolog.Logger
}

func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	ttl := opts.SignTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Orchestrator{
		jobs:      opts.Jobs,
		store:     opts.Store,
		describer: opts.Describer,
		predictor: opts.Predictor,
		profiles:  opts.Profiles,
		signTTL:   ttl,
		logger:    opts.Logger,
	}
}

// SubmitInput is the normalized submission request. Generation parameters are
// loaded from the job record; the explicit fields, when set, override the
// stored values.
type SubmitInput struct {
	JobID       string
	Filename    string
	ImageBase64 string
	// ImageURL optionally points at a full-resolution original, preferred
	// over the stored small image for the prediction call.
	ImageURL string

	CameraControl string
	VideoSize     string
	Duration      int
}

// SubmitResult reports the asynchronous hand-off to the caller.
type SubmitResult struct {
	PredictionID string
	Prompt       string
	UsedFallback bool
}

// Submit runs the upload -> sign -> describe -> predict sequence for one job
// and records the prediction handle. It returns before generation completes.
func (o *Orchestrator) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if strings.TrimSpace(in.JobID) == "" {
		return nil, fmt.Errorf("%w: jobId is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.ImageBase64) == "" {
		return nil, fmt.Errorf("%w: image payload is required", domain.ErrValidation)
	}

	imageBytes, err := decodeImage(in.ImageBase64)
	if err != nil {
		return nil, err
	}

	job, err := o.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", in.JobID, err)
	}

	cameraControl := coalesce(in.CameraControl, job.CameraControl, "stationary")
	videoSize := coalesce(in.VideoSize, job.VideoSize)
	duration := in.Duration
	if duration <= 0 {
		duration = job.Duration
	}

	key := "small/" + path.Base(strings.ReplaceAll(in.Filename, "\\", "/"))
	if err := o.store.Put(ctx, key, imageBytes, contentTypeFor(in.Filename)); err != nil {
		return nil, fmt.Errorf("%w: store image: %v", domain.ErrUpstream, err)
	}

	signedURL, err := o.store.SignURL(ctx, key, o.signTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: sign image url: %v", domain.ErrUpstream, err)
	}
	if err := o.jobs.SetUploaded(ctx, job.ID, signedURL); err != nil {
		return nil, fmt.Errorf("persist image url: %w", err)
	}

	prompt, usedFallback := o.buildPrompt(ctx, signedURL, cameraControl)
	prompt = describe.Truncate(prompt, describe.MaxPromptChars)

	imageRef := coalesce(strings.TrimSpace(in.ImageURL), signedURL)
	prediction, err := o.predictor.Create(ctx, predict.CreateRequest{
		Version:  o.profiles.ForSize(videoSize),
		Prompt:   prompt,
		ImageURL: imageRef,
		Duration: duration,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create prediction: %v", domain.ErrUpstream, err)
	}
	if prediction == nil || strings.TrimSpace(prediction.ID) == "" {
		return nil, domain.ErrPredictionRejected
	}

	if err := o.jobs.MarkGenerating(ctx, job.ID, prompt, prediction.ID); err != nil {
		return nil, fmt.Errorf("persist prediction handle: %w", err)
	}

	o.logger.Info().
		Str("job_id", job.ID).
		Str("prediction_id", prediction.ID).
		Bool("fallback_prompt", usedFallback).
		Msg("submission handed off")

	return &SubmitResult{
		PredictionID: prediction.ID,
		Prompt:       prompt,
		UsedFallback: usedFallback,
	}, nil
}

// buildPrompt asks the describer for a scene description and substitutes the
// deterministic fallback on any error or empty result. Description failures
// never fail the submission.
func (o *Orchestrator) buildPrompt(ctx context.Context, imageURL, cameraControl string) (string, bool) {
	text, err := o.describer.Describe(ctx, imageURL, cameraControl)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			o.logger.Warn().Err(err).Msg("describer unavailable, using fallback prompt")
		}
		telemetry.DescribeFallbacks.Inc()
		return describe.FallbackPrompt(cameraControl), true
	}
	return strings.TrimSpace(text), false
}

func decodeImage(encoded string) ([]byte, error) {
	// Tolerate data URLs from browser callers.
	if idx := strings.Index(encoded, ";base64,"); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image payload", domain.ErrDecode)
	}
	return data, nil
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
