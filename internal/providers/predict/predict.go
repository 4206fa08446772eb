// Package predict talks to the external video-generation prediction service.
// The service is asynchronous: Create returns an opaque handle immediately and
// Get reports the status observed for that handle.
package predict

import (
	"context"
	"encoding/json"
	"strings"
)

// Status is the prediction lifecycle as reported by the external service.
type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Terminal reports whether the external service will not change this status
// anymore.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// CreateRequest carries everything the service needs to start a generation.
type CreateRequest struct {
	// Version selects the generation profile (model variant).
	Version  string
	Prompt   string
	ImageURL string
	Duration int
}

// Prediction is the locally observed snapshot of an external prediction.
type Prediction struct {
	ID     string     `json:"id"`
	Status Status     `json:"status"`
	Output OutputURLs `json:"output"`
	Error  string     `json:"error"`
}

// VideoURL returns the first output URL, if any.
func (p *Prediction) VideoURL() string {
	if p == nil || len(p.Output) == 0 {
		return ""
	}
	return p.Output[0]
}

// OutputURLs tolerates the two output shapes the service emits: a single URL
// string or an array of URLs.
type OutputURLs []string

func (o *OutputURLs) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*o = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*o = OutputURLs{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*o = OutputURLs(many)
	return nil
}

// Service is the prediction-service contract the pipeline depends on.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Prediction, error)
	Get(ctx context.Context, id string) (*Prediction, error)
}
