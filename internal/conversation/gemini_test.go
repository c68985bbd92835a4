package conversation

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/Sujithrt/interview-prep/internal/domain"
)

type fakeGenerator struct {
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}
}

func TestGeminiOpeningTurnAddsKickoff(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("Hi, I'm Ruth.")}
	m := &GeminiModel{models: gen, model: "gemini-2.5-flash"}

	reply, err := m.Complete(context.Background(), []domain.Message{{Role: domain.RoleSystem, Content: "prompt"}})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "Hi, I'm Ruth." {
		t.Fatalf("reply = %q", reply)
	}
	if gen.config == nil || gen.config.SystemInstruction == nil {
		t.Fatal("expected system instruction")
	}
	if len(gen.contents) != 1 || gen.contents[0].Role != string(genai.RoleUser) {
		t.Fatalf("contents = %+v", gen.contents)
	}
}

func TestGeminiMapsAssistantToModelRole(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("Next question.")}
	m := &GeminiModel{models: gen, model: "gemini-2.5-flash"}

	_, err := m.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "prompt"},
		{Role: domain.RoleAssistant, Content: "Hello"},
		{Role: domain.RoleUser, Content: "Hi"},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if len(gen.contents) != 2 {
		t.Fatalf("len(contents) = %d, want 2", len(gen.contents))
	}
	if gen.contents[0].Role != string(genai.RoleModel) || gen.contents[1].Role != string(genai.RoleUser) {
		t.Fatalf("roles = %q, %q", gen.contents[0].Role, gen.contents[1].Role)
	}
}

func TestGeminiError(t *testing.T) {
	m := &GeminiModel{models: &fakeGenerator{err: errors.New("quota")}, model: "m"}
	if _, err := m.Complete(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
