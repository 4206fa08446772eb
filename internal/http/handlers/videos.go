package handlers

import (
	"encoding/json"
	"net/http"

	"vidgen/internal/pipeline"
	"vidgen/internal/telemetry"
)

// generateRequest is the boundary adapter for submissions. Historical callers
// disagree on field casing, so both spellings are accepted and normalized into
// one internal input.
type generateRequest struct {
	JobID    string `json:"job_id"`
	JobIDAlt string `json:"jobId"`

	Filename string `json:"filename"`

	Image string `json:"image"`

	ImageURL    string `json:"image_url"`
	ImageURLAlt string `json:"imageUrl"`

	CameraControl    string `json:"camera_control"`
	CameraControlAlt string `json:"cameraControl"`

	VideoSize    string `json:"video_size"`
	VideoSizeAlt string `json:"videoSize"`

	Duration int `json:"duration"`
}

func (r generateRequest) toInput() pipeline.SubmitInput {
	return pipeline.SubmitInput{
		JobID:         firstNonEmpty(r.JobID, r.JobIDAlt),
		Filename:      r.Filename,
		ImageBase64:   r.Image,
		ImageURL:      firstNonEmpty(r.ImageURL, r.ImageURLAlt),
		CameraControl: firstNonEmpty(r.CameraControl, r.CameraControlAlt),
		VideoSize:     firstNonEmpty(r.VideoSize, r.VideoSizeAlt),
		Duration:      r.Duration,
	}
}

type generateResponse struct {
	Success      bool   `json:"success"`
	PredictionID string `json:"predictionId"`
}

// VideosGenerate accepts a submission, runs the orchestration sequence and
// returns the prediction handle. It does not wait for generation to finish.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.json(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	result, err := a.Submitter.Submit(r.Context(), req.toInput())
	if err != nil {
		telemetry.SubmissionFailures.Inc()
		a.error(w, err)
		return
	}
	telemetry.Submissions.Inc()

	a.json(w, http.StatusOK, generateResponse{Success: true, PredictionID: result.PredictionID})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
