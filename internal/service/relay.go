package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"mirage/internal/domain"
	"mirage/internal/infra"
	"mirage/internal/providers/relay"
)

// ErrMissingSourceID marks a callback delivered without its correlation id,
// which is a client error rather than a server fault.
var ErrMissingSourceID = errors.New("sourceMessageId is required")

// Relay handles the callback-shaped provider flow: submit through the
// dispatch relay, store the decoded delivery, serve it to the poller.
type Relay struct {
	submitter   relay.Submitter
	store       domain.RelayStore
	logger      infra.Logger
	callbackURL string
}

// NewRelay wires the relay flow. submitter may be nil when the relay
// credentials are absent; submission then fails per-request while callbacks
// and polling keep working.
func NewRelay(submitter relay.Submitter, store domain.RelayStore, logger infra.Logger, callbackURL string) *Relay {
	return &Relay{
		submitter:   submitter,
		store:       store,
		logger:      logger,
		callbackURL: callbackURL,
	}
}

// SubmitImage dispatches the prompt and returns the relay's tracking id.
func (r *Relay) SubmitImage(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", domain.ErrInvalidPrompt
	}
	if r.submitter == nil {
		return "", domain.ErrMissingCredential
	}

	id, err := r.submitter.Submit(ctx, prompt, r.callbackURL)
	if err != nil {
		return "", err
	}
	r.logger.Info().Str("tracking_id", id).Msg("prompt dispatched to relay")
	return id, nil
}

// Receive decodes the relay's delivered payload and stores it under the
// source message id. Redelivery of the same payload is a harmless
// overwrite with identical content.
func (r *Relay) Receive(ctx context.Context, sourceID, encodedBody string) (string, error) {
	if strings.TrimSpace(sourceID) == "" {
		return "", ErrMissingSourceID
	}

	decoded, err := base64.StdEncoding.DecodeString(encodedBody)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecodeFailure, err)
	}

	if err := r.store.Save(ctx, sourceID, string(decoded)); err != nil {
		return "", fmt.Errorf("store callback payload: %w", err)
	}
	r.logger.Info().Str("tracking_id", sourceID).Msg("callback payload stored")
	return string(decoded), nil
}

// Poll returns the stored payload for id, or domain.ErrNotFound while the
// delivery is still pending.
func (r *Relay) Poll(ctx context.Context, id string) (string, error) {
	return r.store.Load(ctx, id)
}
