package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mirage/internal/domain"
)

// Generate accepts a prompt, creates a job, and returns its id immediately;
// generation continues in the background.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = "gemini"
	}

	jobID, err := a.Jobs.CreateJob(r.Context(), prompt, provider)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPrompt):
			a.error(w, http.StatusBadRequest, "Prompt is required")
		case errors.Is(err, domain.ErrUnknownProvider), errors.Is(err, domain.ErrMissingCredential):
			a.error(w, http.StatusInternalServerError, err.Error())
		default:
			a.Logger.Error().Err(err).Msg("failed to create job")
			a.error(w, http.StatusInternalServerError, "failed to create job")
		}
		return
	}

	a.json(w, http.StatusOK, map[string]string{"jobId": jobID})
}

// Status returns the current job record. Unknown and swept ids are both a
// 404; the two are indistinguishable on purpose.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := a.Jobs.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("status lookup failed")
		a.error(w, http.StatusInternalServerError, "status lookup failed")
		return
	}

	a.json(w, http.StatusOK, job)
}
