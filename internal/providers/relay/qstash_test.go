package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage/internal/domain"
)

func TestQStashSubmitPublishesWithCallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v1/publish/"))
		assert.Contains(t, r.URL.Path, "api.openai.com")
		assert.Equal(t, "Bearer relay-token", r.Header.Get("Authorization"))
		assert.Equal(t, "Bearer vendor-key", r.Header.Get("Upstash-Forward-Authorization"))
		assert.Equal(t, "http://localhost:3000/api/callback", r.Header.Get("Upstash-Callback"))

		var payload publishRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a cat", payload.Prompt)
		assert.Equal(t, "b64_json", payload.ResponseFormat)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"messageId": "msg_1"})
	}))
	defer ts.Close()

	s, err := NewQStashSubmitter(QStashOptions{
		BaseURL:      ts.URL,
		Token:        "relay-token",
		OpenAIAPIKey: "vendor-key",
	})
	require.NoError(t, err)

	id, err := s.Submit(context.Background(), "a cat", "http://localhost:3000/api/callback")
	require.NoError(t, err)
	assert.Equal(t, "msg_1", id)
}

func TestQStashSubmitRelayError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	s, err := NewQStashSubmitter(QStashOptions{
		BaseURL:      ts.URL,
		Token:        "relay-token",
		OpenAIAPIKey: "vendor-key",
	})
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), "a cat", "http://localhost:3000/api/callback")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestQStashRequiresCredentials(t *testing.T) {
	_, err := NewQStashSubmitter(QStashOptions{OpenAIAPIKey: "vendor-key"})
	assert.ErrorIs(t, err, domain.ErrMissingCredential)

	_, err = NewQStashSubmitter(QStashOptions{Token: "relay-token"})
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}
