// Package interview runs the per-session interview pipeline: setup, audio
// turns and the closing report, one run at a time per session.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sujithrt/interview-prep/internal/domain"
	"github.com/Sujithrt/interview-prep/internal/metrics"
	"github.com/Sujithrt/interview-prep/internal/prompts"
	"github.com/Sujithrt/interview-prep/internal/shared"
	"github.com/Sujithrt/interview-prep/internal/transcode"
)

// Transcoder converts a clip to a waveform file for turnID.
type Transcoder interface {
	Convert(ctx context.Context, clip []byte, turnID string) (*transcode.Artifact, error)
}

// Recognizer turns a waveform file into text. Submit uploads the file and
// starts a job; the file is not read again afterwards.
type Recognizer interface {
	Submit(ctx context.Context, path, turnID string) (*domain.TranscriptionJob, error)
	Await(ctx context.Context, job *domain.TranscriptionJob) (domain.JobStatus, error)
	Fetch(ctx context.Context, job *domain.TranscriptionJob) (string, error)
}

// Conversation continues an interview history.
type Conversation interface {
	Continue(ctx context.Context, history []domain.Message, userText string) ([]domain.Message, string, error)
	Instruct(ctx context.Context, history []domain.Message, instruction string) ([]domain.Message, string, error)
}

// Synthesizer renders text in a voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
	Supports(voice string) bool
}

// Archive stores finished interviews.
type Archive interface {
	SaveInterview(ctx context.Context, iv *domain.Interview) error
}

// Deps are the collaborators of a Coordinator. Archive and Metrics are
// optional.
type Deps struct {
	Transcoder   Transcoder
	Recognizer   Recognizer
	Conversation Conversation
	Synthesizer  Synthesizer
	Prompts      *prompts.Set
	Archive      Archive
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// Coordinator sequences the pipeline components for each session. It holds
// no session state and is safe for concurrent use.
type Coordinator struct {
	Deps
	newTurnID      func() string
	archiveTimeout time.Duration
}

// NewCoordinator validates deps and returns a Coordinator.
func NewCoordinator(d Deps) (*Coordinator, error) {
	var missing []string
	if d.Transcoder == nil {
		missing = append(missing, "transcoder")
	}
	if d.Recognizer == nil {
		missing = append(missing, "recognizer")
	}
	if d.Conversation == nil {
		missing = append(missing, "conversation")
	}
	if d.Synthesizer == nil {
		missing = append(missing, "synthesizer")
	}
	if d.Prompts == nil {
		missing = append(missing, "prompts")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("coordinator: missing %s", strings.Join(missing, ", "))
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Coordinator{Deps: d, newTurnID: uuid.NewString, archiveTimeout: 10 * time.Second}, nil
}

// Submit runs session setup: render the system prompt, produce and speak the
// opening line. On failure the session returns to Uninitialized with an
// empty history and the client gets upload-error.
func (c *Coordinator) Submit(ctx context.Context, s *Session, req domain.SetupRequest) error {
	if _, err := s.acquire(domain.PhaseAwaitingFirstTurn, domain.PhaseUninitialized); err != nil {
		c.rejected(s, "submit", err)
		return err
	}

	ctx, span := tracer.Start(ctx, "session setup", trace.WithAttributes(
		attribute.String("session.id", s.ID()),
		attribute.String("voice", req.Voice),
	))
	defer span.End()
	start := time.Now()
	log := c.Logger.With("session_id", s.ID())

	history, reply, audio, err := c.setup(ctx, req)
	c.record("setup", start, err)
	if err != nil {
		s.release(domain.PhaseUninitialized)
		spanErr(span, err)
		log.Error("Interview setup failed", "voice", req.Voice, "stage", shared.KindOf(err), "error", err)
		c.emit(log, "upload-error", s.emitter.SetupError("Failed to start the interview. Please try again."))
		return err
	}

	s.commit(domain.PhaseAwaitingUserAudio, history, req.Voice)
	log.Info("Interview started", "voice", req.Voice, "opening_length", len(reply))
	c.emit(log, "audio-response", s.emitter.Audio(audio))
	c.emit(log, "upload-status", s.emitter.Status("Interview started successfully."))
	return nil
}

func (c *Coordinator) setup(ctx context.Context, req domain.SetupRequest) ([]domain.Message, string, []byte, error) {
	if strings.TrimSpace(req.Voice) == "" || !c.Synthesizer.Supports(req.Voice) {
		return nil, "", nil, shared.Errorf(shared.KindSynthesis, nil, "voice %q is not available", req.Voice)
	}
	system, err := c.Prompts.System(prompts.Params{
		Interviewer:    req.Voice,
		JobDescription: req.JobDescription,
		Resume:         req.Resume,
	})
	if err != nil {
		return nil, "", nil, shared.Errorf(shared.KindModelCall, err, "build system prompt")
	}

	seed := []domain.Message{{Role: domain.RoleSystem, Content: system}}
	history, reply, err := c.Conversation.Continue(ctx, seed, "")
	if err != nil {
		return nil, "", nil, err
	}
	audio, err := c.Synthesizer.Synthesize(ctx, reply, req.Voice)
	if err != nil {
		return nil, "", nil, err
	}
	return history, reply, audio, nil
}

// Audio runs one turn: transcode, transcribe, continue the conversation and
// speak the reply. The session is back in AwaitingUserAudio on every exit.
func (c *Coordinator) Audio(ctx context.Context, s *Session, clip []byte) error {
	r, err := s.acquire(domain.PhaseProcessing, domain.PhaseAwaitingUserAudio)
	if err != nil {
		c.rejected(s, "audio", err)
		return err
	}

	turnID := c.newTurnID()
	ctx, span := tracer.Start(ctx, "audio turn", trace.WithAttributes(
		attribute.String("session.id", s.ID()),
		attribute.String("turn.id", turnID),
	))
	defer span.End()
	start := time.Now()
	log := c.Logger.With("session_id", s.ID(), "turn_id", turnID)
	if c.Metrics != nil {
		c.Metrics.RecordAudioClip(len(clip))
	}

	history, reply, audio, err := c.turn(ctx, log, r, clip, turnID)
	c.record("turn", start, err)
	if err != nil {
		s.release(domain.PhaseAwaitingUserAudio)
		spanErr(span, err)
		stage := shared.KindOf(err)
		log.Error("Interview turn failed", "stage", stage, "error", err)
		c.emit(log, "turn-error", s.emitter.TurnError(string(stage), turnErrorMessage(stage)))
		return err
	}

	s.commit(domain.PhaseAwaitingUserAudio, history, "")
	log.Info("Interview turn completed", "history_length", len(history), "reply_length", len(reply),
		"duration", time.Since(start))
	c.emit(log, "audio-response", s.emitter.Audio(audio))
	return nil
}

func (c *Coordinator) turn(ctx context.Context, log *slog.Logger, r run, clip []byte, turnID string) ([]domain.Message, string, []byte, error) {
	art, err := c.Transcoder.Convert(ctx, clip, turnID)
	if err != nil {
		return nil, "", nil, err
	}
	removed := false
	cleanup := func() {
		if removed {
			return
		}
		removed = true
		if err := art.Remove(); err != nil {
			log.Warn("Failed to remove turn audio", "artifact", art.String(), "error", err)
		}
	}
	defer cleanup()

	transcribeStart := time.Now()
	job, err := c.Recognizer.Submit(ctx, art.WaveformPath, turnID)
	// The local files are not needed once the waveform is uploaded.
	cleanup()
	if err != nil {
		return nil, "", nil, err
	}
	if job == nil {
		return nil, "", nil, shared.Errorf(shared.KindJobStart, nil, "recognizer returned no job for turn %s", turnID)
	}
	if _, err := c.Recognizer.Await(ctx, job); err != nil {
		log.Warn("Transcription job did not finish", "job_name", job.Name,
			"status", job.Status, "failure_reason", job.FailureReason)
		return nil, "", nil, err
	}
	text, err := c.Recognizer.Fetch(ctx, job)
	if err != nil {
		return nil, "", nil, err
	}
	if c.Metrics != nil {
		c.Metrics.RecordTranscription(time.Since(transcribeStart))
	}
	log.Debug("Candidate answer transcribed", "job_name", job.Name, "length", len(text))

	history, reply, err := c.Conversation.Continue(ctx, r.history, text)
	if err != nil {
		return nil, "", nil, err
	}
	audio, err := c.Synthesizer.Synthesize(ctx, reply, r.voice)
	if err != nil {
		return nil, "", nil, err
	}
	return history, reply, audio, nil
}

// End runs the report turn. On success the session is Ended and the
// interview is archived. On failure it stays in AwaitingUserAudio so the
// client may ask again.
func (c *Coordinator) End(ctx context.Context, s *Session) error {
	r, err := s.acquire(domain.PhaseProcessing, domain.PhaseAwaitingUserAudio)
	if err != nil {
		c.rejected(s, "end", err)
		return err
	}

	ctx, span := tracer.Start(ctx, "report turn", trace.WithAttributes(attribute.String("session.id", s.ID())))
	defer span.End()
	start := time.Now()
	log := c.Logger.With("session_id", s.ID())

	history, report, err := c.Conversation.Instruct(ctx, r.history, c.Prompts.Report())
	c.record("report", start, err)
	if err != nil {
		s.release(domain.PhaseAwaitingUserAudio)
		spanErr(span, err)
		log.Error("Interview report failed", "stage", shared.KindOf(err), "error", err)
		c.emit(log, "turn-error", s.emitter.TurnError(string(shared.KindOf(err)), "Failed to generate the interview report. Please try again."))
		return err
	}

	s.commit(domain.PhaseEnded, history, "")
	log.Info("Interview ended", "turns", domain.SpokenTurns(history), "report_length", len(report))
	c.emit(log, "end-response", s.emitter.Report(report))
	c.archive(ctx, log, s, history, r.voice, report)
	return nil
}

func (c *Coordinator) archive(ctx context.Context, log *slog.Logger, s *Session, history []domain.Message, voice, report string) {
	if c.Archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.archiveTimeout)
	defer cancel()

	iv := &domain.Interview{
		ID:         s.ID(),
		Voice:      voice,
		StartedAt:  s.StartedAt(),
		EndedAt:    time.Now(),
		Turns:      domain.SpokenTurns(history),
		Report:     report,
		Transcript: history,
	}
	if err := c.Archive.SaveInterview(ctx, iv); err != nil {
		log.Warn("Failed to archive interview", "error", err)
		return
	}
	if c.Metrics != nil {
		c.Metrics.RecordArchived()
	}
}

func (c *Coordinator) rejected(s *Session, event string, err error) {
	reason := "phase"
	if errors.Is(err, ErrBusy) {
		reason = "busy"
	}
	c.Logger.Debug("Event rejected", "session_id", s.ID(), "event", event, "reason", reason, "phase", s.Phase())
	if c.Metrics != nil {
		c.Metrics.RecordRejected(event, reason)
	}
}

func (c *Coordinator) record(kind string, start time.Time, err error) {
	if c.Metrics != nil {
		c.Metrics.RecordTurn(kind, time.Since(start), err, string(shared.KindOf(err)))
	}
}

func (c *Coordinator) emit(log *slog.Logger, event string, err error) {
	if err != nil {
		log.Debug("Dropped outbound event", "event", event, "error", err)
	}
}

func spanErr(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func turnErrorMessage(kind shared.Kind) string {
	switch kind {
	case shared.KindEmptyInput:
		return "No audio was received. Please try again."
	case shared.KindResultFetch:
		return "We could not understand the recording. Please try again."
	case shared.KindTimedOut:
		return "Transcription took too long. Please try again."
	default:
		return "Something went wrong processing your answer. Please try again."
	}
}
