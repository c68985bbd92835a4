// Package conversation owns the message-append rules of an interview and
// calls the language model that produces each interviewer turn.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Sujithrt/interview-prep/internal/domain"
	"github.com/Sujithrt/interview-prep/internal/shared"
)

// Model produces the next assistant message for a history.
type Model interface {
	Complete(ctx context.Context, history []domain.Message) (string, error)
}

// Engine continues conversations. It holds no per-session state.
type Engine struct {
	model  Model
	logger *slog.Logger
}

// NewEngine creates an Engine backed by model.
func NewEngine(model Model, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{model: model, logger: logger}
}

// Continue appends userText (when non-empty) and the model's reply to a copy
// of history. On failure the original history is returned unchanged.
func (e *Engine) Continue(ctx context.Context, history []domain.Message, userText string) ([]domain.Message, string, error) {
	var next *domain.Message
	if strings.TrimSpace(userText) != "" {
		next = &domain.Message{Role: domain.RoleUser, Content: userText}
	}
	return e.run(ctx, history, next)
}

// Instruct is Continue for server-written user content, such as the report
// request. The message is tagged as injected.
func (e *Engine) Instruct(ctx context.Context, history []domain.Message, instruction string) ([]domain.Message, string, error) {
	if strings.TrimSpace(instruction) == "" {
		return history, "", shared.Errorf(shared.KindModelCall, nil, "instruction is empty")
	}
	return e.run(ctx, history, &domain.Message{Role: domain.RoleUser, Content: instruction, Injected: true})
}

func (e *Engine) run(ctx context.Context, history []domain.Message, next *domain.Message) ([]domain.Message, string, error) {
	ctx, span := tracer.Start(ctx, "continue conversation")
	defer span.End()
	span.SetAttributes(attribute.Int("history.length", len(history)))

	candidate := make([]domain.Message, len(history), len(history)+2)
	copy(candidate, history)
	if next != nil {
		candidate = append(candidate, *next)
	}

	reply, err := e.model.Complete(ctx, candidate)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("model returned an empty reply")
	}
	if err != nil {
		err = shared.Errorf(shared.KindModelCall, err, "complete conversation")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return history, "", err
	}

	candidate = append(candidate, domain.Message{Role: domain.RoleAssistant, Content: reply})
	span.SetAttributes(attribute.Int("reply.length", len(reply)))
	e.logger.Debug("Conversation continued", "history_length", len(candidate))
	return candidate, reply, nil
}
