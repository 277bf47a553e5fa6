package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAITestServer(t *testing.T, handler http.HandlerFunc) *AIService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAIService(server.URL, "test-key", "chat-model", "vision-model")
}

func TestChat_RequestShape(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	ai := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  olá!  "}}]}`))
	})

	content, err := ai.Chat(context.Background(), []ChatMessage{
		{Role: "system", Content: "persona"},
		{Role: "user", Content: "oi"},
	})

	require.NoError(t, err)
	assert.Equal(t, "olá!", content) // whitespace trimmed
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "chat-model", gotBody["model"])
	assert.Equal(t, false, gotBody["stream"])
	assert.Len(t, gotBody["messages"], 2)
}

func TestAnalyzeFoodPhoto_UsesVisionModel(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}

	ai := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})

	_, err := ai.AnalyzeFoodPhoto(context.Background(), "https://example.com/photo.jpg")
	require.NoError(t, err)

	assert.Equal(t, "vision-model", gotBody.Model)
	require.Len(t, gotBody.Messages, 2)

	// user turn carries the image as a multimodal part
	var parts []ContentPart
	require.NoError(t, json.Unmarshal(gotBody.Messages[1].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "image_url", parts[1].Type)
	require.NotNil(t, parts[1].ImageURL)
	assert.Equal(t, "https://example.com/photo.jpg", parts[1].ImageURL.URL)
}

func TestChat_RateLimited(t *testing.T) {
	ai := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := ai.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "oi"}})
	assert.ErrorIs(t, err, ErrAIRateLimited)
}

func TestChat_QuotaExceeded(t *testing.T) {
	ai := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	_, err := ai.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "oi"}})
	assert.ErrorIs(t, err, ErrAIQuotaExceeded)
}

func TestChat_GatewayError(t *testing.T) {
	ai := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	_, err := ai.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "oi"}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAIRateLimited)
	assert.NotErrorIs(t, err, ErrAIQuotaExceeded)
	assert.Contains(t, err.Error(), "500")
}

func TestChat_EmptyChoices(t *testing.T) {
	ai := newAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	content, err := ai.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "oi"}})
	require.NoError(t, err)
	assert.Empty(t, content)
}
