package handlers

import (
	"encoding/json"
	"net/http"
)

type rateRequest struct {
	JobID  string `json:"jobId"`
	Rating string `json:"rating"`
}

// Rate is a best-effort feedback sink: ratings are validated and logged,
// nothing more.
func (a *App) Rate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.JobID == "" {
		a.error(w, http.StatusBadRequest, "jobId is required")
		return
	}
	if req.Rating != "positive" && req.Rating != "negative" {
		a.error(w, http.StatusBadRequest, "rating must be positive or negative")
		return
	}

	a.Logger.Info().Str("job_id", req.JobID).Str("rating", req.Rating).Msg("job rated")
	a.json(w, http.StatusOK, map[string]bool{"ok": true})
}
