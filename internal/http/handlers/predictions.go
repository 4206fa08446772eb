package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type predictionPayload struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Output   []string `json:"output,omitempty"`
	VideoURL string   `json:"video_url,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type predictionResponse struct {
	Success    bool              `json:"success"`
	Prediction predictionPayload `json:"prediction"`
}

// PredictionStatus answers a single-shot status poll. Callers re-invoke it
// until the prediction is terminal; the handler never holds the connection
// open while the external service works.
func (a *App) PredictionStatus(w http.ResponseWriter, r *http.Request) {
	predictionID := chi.URLParam(r, "id")
	if predictionID == "" {
		predictionID = r.URL.Query().Get("prediction_id")
	}
	if predictionID == "" {
		predictionID = r.URL.Query().Get("predictionId")
	}

	result, err := a.Poller.Poll(r.Context(), predictionID)
	if err != nil {
		a.error(w, err)
		return
	}

	a.json(w, http.StatusOK, predictionResponse{
		Success: true,
		Prediction: predictionPayload{
			ID:       result.PredictionID,
			Status:   string(result.Status),
			Output:   result.Output,
			VideoURL: result.VideoURL,
			Error:    result.ErrorMessage,
		},
	})
}
