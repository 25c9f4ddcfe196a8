// Package relay implements the callback-shaped provider protocol: the
// prompt is published to an asynchronous dispatch service which forwards it
// to the vendor and delivers the vendor's response to our callback endpoint.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mirage/internal/domain"
)

const dalleEndpoint = "https://api.openai.com/v1/images/generations"

// Submitter dispatches a prompt for asynchronous fulfillment and returns a
// tracking id. The actual result arrives later on the callback endpoint.
type Submitter interface {
	Submit(ctx context.Context, prompt, callbackURL string) (string, error)
}

// QStashOptions configures the QStash submitter.
type QStashOptions struct {
	BaseURL      string
	Token        string
	OpenAIAPIKey string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// QStashSubmitter publishes the DALL-E generation request through QStash,
// forwarding the vendor credential and pointing the relay at our callback.
type QStashSubmitter struct {
	httpClient *http.Client
	baseURL    string
	token      string
	vendorKey  string
}

// NewQStashSubmitter builds the submitter. Both the relay token and the
// forwarded vendor key must be present before anything is dispatched.
func NewQStashSubmitter(opts QStashOptions) (*QStashSubmitter, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, fmt.Errorf("qstash: %w", domain.ErrMissingCredential)
	}
	vendorKey := strings.TrimSpace(opts.OpenAIAPIKey)
	if vendorKey == "" {
		return nil, fmt.Errorf("qstash: openai key: %w", domain.ErrMissingCredential)
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://qstash.upstash.io"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &QStashSubmitter{
		httpClient: client,
		baseURL:    base,
		token:      token,
		vendorKey:  vendorKey,
	}, nil
}

type publishRequest struct {
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type publishResponse struct {
	MessageID string `json:"messageId"`
}

func (s *QStashSubmitter) Submit(ctx context.Context, prompt, callbackURL string) (string, error) {
	body, err := json.Marshal(publishRequest{
		Prompt:         prompt,
		N:              1,
		Size:           "1024x1024",
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return "", err
	}

	endpoint := s.baseURL + "/v1/publish/" + dalleEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("upstash-forward-Authorization", "Bearer "+s.vendorKey)
	req.Header.Set("Upstash-Callback", callbackURL)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qstash publish: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: qstash error: %d %s", domain.ErrProviderFailure, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var parsed publishResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: qstash: decode response: %v", domain.ErrProviderFailure, err)
	}
	if parsed.MessageID == "" {
		return "", fmt.Errorf("%w: qstash: missing messageId", domain.ErrProviderFailure)
	}
	return parsed.MessageID, nil
}

var _ Submitter = (*QStashSubmitter)(nil)
