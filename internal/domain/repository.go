package domain

import "context"

// JobRepository is the persistence contract for jobs. Updates are
// conditional: terminal states are never overwritten and the prediction
// handle is set at most once, which keeps concurrent submit/poll invocations
// for the same job safe without row locks.
type JobRepository interface {
	GetByID(ctx context.Context, jobID string) (*Job, error)
	GetByPredictionID(ctx context.Context, predictionID string) (*Job, error)
	// ListGenerating returns up to limit jobs still waiting on the external
	// prediction service, oldest first.
	ListGenerating(ctx context.Context, limit int) ([]*Job, error)
	// SetUploaded records the signed small-image URL after a successful upload.
	SetUploaded(ctx context.Context, jobID, smallImageURL string) error
	// MarkGenerating records the final prompt and the prediction handle and
	// moves the job to generating. It returns ErrConflict for terminal jobs
	// and for jobs that already carry a handle, so callers never report a
	// handle that was not persisted.
	MarkGenerating(ctx context.Context, jobID, prompt, predictionID string) error
	// MarkTerminal moves the job to a terminal status. videoURL is persisted
	// only for succeeded, errMsg only for failed.
	MarkTerminal(ctx context.Context, jobID string, status JobStatus, videoURL, errMsg string) error
}
