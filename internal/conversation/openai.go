package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Sujithrt/interview-prep/internal/domain"
)

// OpenAIModel calls the chat completions endpoint.
type OpenAIModel struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIModel creates an OpenAIModel. An empty baseURL uses the public API.
func NewOpenAIModel(apiKey, model, baseURL string, timeout time.Duration) *OpenAIModel {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIModel{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete implements Model.
func (m *OpenAIModel) Complete(ctx context.Context, history []domain.Message) (string, error) {
	reqBody := chatRequest{Model: m.model, Messages: make([]chatMessage, 0, len(history))}
	for _, msg := range history {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out chatResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != nil {
			return "", fmt.Errorf("openai status %s: %s", resp.Status, out.Error.Message)
		}
		return "", fmt.Errorf("openai status %s", resp.Status)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
