package conversation

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Sujithrt/interview-prep/internal/domain"
)

// kickoff stands in for the candidate on the opening turn; Gemini rejects
// requests whose contents are empty.
const kickoff = "Please begin the interview."

// contentGenerator is the part of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiModel calls Google Gemini through the genai SDK.
type GeminiModel struct {
	models contentGenerator
	model  string
}

// NewGeminiModel creates a Gemini client for the Gemini API backend.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiModel{models: client.Models, model: model}, nil
}

// Complete implements Model. System messages become the system instruction
// and assistant messages are sent with the model role.
func (m *GeminiModel) Complete(ctx context.Context, history []domain.Message) (string, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		switch msg.Role {
		case domain.RoleSystem:
			system = append(system, msg.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 || contents[len(contents)-1].Role != string(genai.RoleUser) {
		contents = append(contents, genai.NewContentFromText(kickoff, genai.RoleUser))
	}

	var cfg *genai.GenerateContentConfig
	if len(system) > 0 {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser),
		}
	}

	resp, err := m.models.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
