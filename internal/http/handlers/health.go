package handlers

import (
	"net/http"
)

// Health reports liveness and the current number of tracked jobs.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	count, err := a.Jobs.JobCount(r.Context())
	if err != nil {
		a.Logger.Warn().Err(err).Msg("job count unavailable")
		count = 0
	}
	a.json(w, http.StatusOK, map[string]any{"status": "ok", "jobs": count})
}
