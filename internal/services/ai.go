package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for gateway responses the router answers with a fixed reply
var (
	ErrAIRateLimited   = errors.New("ai gateway: too many requests")
	ErrAIQuotaExceeded = errors.New("ai gateway: usage limit reached")
)

// ChatMessage is one turn in a chat-completions request. Content is a string
// for text turns or a []ContentPart for multimodal turns.
type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart is one element of a multimodal message
type ContentPart struct {
	Type     string    `json:"type"` // "text" | "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// AIService calls a chat-completions-compatible gateway
type AIService struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	visionModel string
}

// NewAIService creates a gateway client. baseURL is the API root, e.g.
// "https://api.openai.com/v1".
func NewAIService(baseURL, apiKey, model, visionModel string) *AIService {
	return &AIService{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		visionModel: visionModel,
	}
}

// Chat sends a non-streaming completion request and returns the assistant
// text. An empty string with a nil error means the response had an unexpected
// shape; callers pick their own fallback.
func (a *AIService) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	return a.complete(ctx, a.model, messages)
}

// AnalyzeFoodPhoto asks the vision model to estimate the nutrition of the
// dish in the photo and returns the raw model text.
func (a *AIService) AnalyzeFoodPhoto(ctx context.Context, photoURL string) (string, error) {
	messages := []ChatMessage{
		{Role: "system", Content: foodVisionPrompt},
		{Role: "user", Content: []ContentPart{
			{Type: "text", Text: "Analise esta refeição."},
			{Type: "image_url", ImageURL: &ImageURL{URL: photoURL}},
		}},
	}
	return a.complete(ctx, a.visionModel, messages)
}

func (a *AIService) complete(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	reqBody := map[string]interface{}{
		"model":    model,
		"stream":   false,
		"messages": messages,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrAIRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", ErrAIQuotaExceeded
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ai gateway error %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
