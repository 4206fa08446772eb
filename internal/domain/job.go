package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	// JobStatusPending is the state a job row is created in, before submission.
	JobStatusPending JobStatus = "pending"
	// JobStatusGenerating means a prediction handle has been obtained and the
	// external service is producing the video.
	JobStatusGenerating JobStatus = "generating"
	JobStatusSucceeded  JobStatus = "succeeded"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition is defined out of s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Job tracks one image-to-video generation request end-to-end. Rows are
// created externally before submission; the orchestrator and poller only
// mutate them.
type Job struct {
	ID            string
	CameraControl string
	VideoSize     string
	Duration      int
	SmallImageURL string
	Prompt        string
	PredictionID  string
	Status        JobStatus
	ErrorMessage  string
	VideoURL      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
