package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mirage/internal/domain"
	"mirage/internal/service"
)

type relayError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Image dispatches the prompt through the async relay and returns the
// tracking id with 202 Accepted.
func (a *App) Image(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")

	id, err := a.Relay.SubmitImage(r.Context(), prompt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPrompt) {
			a.json(w, http.StatusBadRequest, relayError{Message: "Prompt is required", Type: "Bad Request"})
			return
		}
		a.Logger.Error().Err(err).Msg("relay dispatch failed")
		a.json(w, http.StatusInternalServerError, relayError{Message: err.Error(), Type: "Internal server error"})
		return
	}

	a.json(w, http.StatusAccepted, map[string]string{"id": id})
}

// Poll serves the decoded callback payload once the relay has delivered it.
func (a *App) Poll(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		a.json(w, http.StatusBadRequest, relayError{Message: "ID parameter is required", Type: "Bad Request"})
		return
	}

	payload, err := a.Relay.Poll(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.json(w, http.StatusNotFound, relayError{Message: "No data found", Type: "Not Found"})
			return
		}
		a.Logger.Error().Err(err).Str("tracking_id", id).Msg("relay poll failed")
		a.json(w, http.StatusInternalServerError, relayError{Message: err.Error(), Type: "Internal server error"})
		return
	}

	// The payload is the vendor's JSON, stored verbatim; serve it as-is.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(payload))
}

type callbackRequest struct {
	SourceMessageID string `json:"sourceMessageId"`
	Body            string `json:"body"`
}

// Callback receives the relay's delivery, decodes it, and stores it under
// the source message id. Safe under redelivery.
func (a *App) Callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	decoded, err := a.Relay.Receive(r.Context(), req.SourceMessageID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingSourceID):
			a.error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrDecodeFailure):
			a.error(w, http.StatusInternalServerError, err.Error())
		default:
			a.Logger.Error().Err(err).Msg("callback handling failed")
			a.error(w, http.StatusInternalServerError, "callback handling failed")
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(decoded))
}
