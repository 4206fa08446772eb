package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"vidgen/internal/domain"
	"vidgen/internal/pipeline"
)

// Submitter is the slice of the orchestrator the HTTP layer needs.
type Submitter interface {
	Submit(ctx context.Context, in pipeline.SubmitInput) (*pipeline.SubmitResult, error)
}

// StatusPoller is the slice of the poller the HTTP layer needs.
type StatusPoller interface {
	Poll(ctx context.Context, predictionID string) (*pipeline.PollResult, error)
}

// App is the handler container. Collaborators are injected so tests can use
// doubles without environment mutation.
type App struct {
	Submitter Submitter
	Poller    StatusPoller
	Logger    zerolog.Logger
}

func NewApp(submitter Submitter, poller StatusPoller, logger zerolog.Logger) *App {
	return &App{Submitter: submitter, Poller: poller, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error maps domain sentinels onto HTTP statuses and writes the JSON error
// envelope. Unexpected errors are reported generically; no internals leak.
func (a *App) error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrDecode):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = "job not found"
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrTimeout):
		status = http.StatusGatewayTimeout
		message = err.Error()
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrPredictionRejected):
		status = http.StatusBadGateway
		message = err.Error()
	default:
		a.Logger.Error().Err(err).Msg("unexpected handler error")
	}
	a.json(w, status, map[string]string{"error": message})
}
