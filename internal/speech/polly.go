// Package speech renders interviewer replies to audio.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Sujithrt/interview-prep/internal/shared"
)

// PollyAPI is the subset of the Polly client used by Synthesizer.
type PollyAPI interface {
	SynthesizeSpeech(ctx context.Context, in *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Synthesizer turns text into a single MP3 payload.
type Synthesizer struct {
	client PollyAPI
	engine types.Engine
	voices []string
	logger *slog.Logger
}

// New creates a Synthesizer. voices is the allow-list checked by Supports.
func New(client PollyAPI, engine string, voices []string, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == "" {
		engine = string(types.EngineGenerative)
	}
	return &Synthesizer{client: client, engine: types.Engine(engine), voices: voices, logger: logger}
}

// Supports reports whether voice is in the configured allow-list.
func (s *Synthesizer) Supports(voice string) bool {
	return slices.Contains(s.voices, voice)
}

// Synthesize reads the whole audio stream for text spoken by voice.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) (_ []byte, err error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.String("voice", voice), attribute.Int("text.length", len(text)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if strings.TrimSpace(text) == "" {
		return nil, shared.Errorf(shared.KindSynthesis, nil, "text is empty")
	}

	out, err := s.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		VoiceId:      types.VoiceId(voice),
		Engine:       s.engine,
		OutputFormat: types.OutputFormatMp3,
	})
	if err != nil {
		return nil, shared.Errorf(shared.KindSynthesis, err, "synthesize with voice %s", voice)
	}
	if out.AudioStream == nil {
		return nil, shared.Errorf(shared.KindSynthesis, nil, "response has no audio stream")
	}
	defer func() { _ = out.AudioStream.Close() }()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, out.AudioStream); err != nil {
		return nil, shared.Errorf(shared.KindSynthesis, err, "read audio stream")
	}
	if buf.Len() == 0 {
		return nil, shared.Errorf(shared.KindSynthesis, nil, "audio stream was empty")
	}

	span.SetAttributes(attribute.Int("audio.bytes", buf.Len()))
	s.logger.Debug("Speech synthesized", "voice", voice, "bytes", buf.Len())
	return buf.Bytes(), nil
}

// String is used in log lines.
func (s *Synthesizer) String() string {
	return fmt.Sprintf("polly(engine=%s voices=%v)", s.engine, s.voices)
}
