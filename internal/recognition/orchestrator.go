// Package recognition drives remote speech-recognition jobs: upload the
// waveform, start a job, poll it to a terminal state and read the transcript.
package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sujithrt/interview-prep/internal/domain"
	"github.com/Sujithrt/interview-prep/internal/shared"
)

// TranscribeAPI is the subset of the Transcribe client used by Orchestrator.
type TranscribeAPI interface {
	StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// ObjectStore is the blob handoff between this service and the job.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Bucket() string
	URI(key string) string
}

// Config controls job naming and polling.
type Config struct {
	LanguageCode    string
	JobNamePrefix   string
	PollInterval    time.Duration
	Timeout         time.Duration
	MaxStatusErrors int
}

// Orchestrator runs one transcription job per turn. Safe for concurrent use.
type Orchestrator struct {
	client TranscribeAPI
	store  ObjectStore
	cfg    Config
	logger *slog.Logger
	open   func(name string) (*os.File, error)
}

// New creates an Orchestrator.
func New(client TranscribeAPI, store ObjectStore, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if cfg.MaxStatusErrors < 1 {
		cfg.MaxStatusErrors = 1
	}
	return &Orchestrator{client: client, store: store, cfg: cfg, logger: logger, open: os.Open}
}

// NewJob names the job and objects for turnID.
func (o *Orchestrator) NewJob(turnID string) *domain.TranscriptionJob {
	name := o.cfg.JobNamePrefix + "-" + turnID
	return &domain.TranscriptionJob{
		Name:      name,
		TurnID:    turnID,
		SourceKey: "audio-" + turnID + ".wav",
		ResultKey: name + ".json",
		Status:    domain.JobQueued,
	}
}

// Submit uploads the waveform at path and starts a job that reads it.
func (o *Orchestrator) Submit(ctx context.Context, path, turnID string) (_ *domain.TranscriptionJob, err error) {
	job := o.NewJob(turnID)
	ctx, span := tracer.Start(ctx, "submit transcription job",
		trace.WithAttributes(attribute.String("job.name", job.Name)))
	defer span.End()
	defer func() { recordErr(span, err) }()

	f, err := o.open(path)
	if err != nil {
		return nil, shared.Errorf(shared.KindUpload, err, "open waveform")
	}
	defer func() { _ = f.Close() }()

	if err := o.store.Put(ctx, job.SourceKey, f, "audio/wav"); err != nil {
		return nil, shared.Errorf(shared.KindUpload, err, "upload %s", job.SourceKey)
	}

	_, err = o.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(job.Name),
		LanguageCode:         types.LanguageCode(o.cfg.LanguageCode),
		MediaFormat:          types.MediaFormatWav,
		Media:                &types.Media{MediaFileUri: aws.String(o.store.URI(job.SourceKey))},
		OutputBucketName:     aws.String(o.store.Bucket()),
		OutputKey:            aws.String(job.ResultKey),
	})
	if err != nil {
		return nil, shared.Errorf(shared.KindJobStart, err, "start job %s", job.Name)
	}

	o.logger.Debug("Transcription job started", "job_name", job.Name, "source_key", job.SourceKey)
	return job, nil
}

// Await polls job until it completes, fails or the configured timeout
// elapses. Status query errors are tolerated up to MaxStatusErrors in a row.
func (o *Orchestrator) Await(ctx context.Context, job *domain.TranscriptionJob) (_ domain.JobStatus, err error) {
	ctx, span := tracer.Start(ctx, "await transcription job",
		trace.WithAttributes(attribute.String("job.name", job.Name)))
	defer span.End()
	defer func() { recordErr(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	polls, statusErrs := 0, 0
	for {
		select {
		case <-ctx.Done():
			span.SetAttributes(attribute.Int("job.polls", polls))
			return job.Status, shared.Errorf(shared.KindTimedOut, ctx.Err(),
				"job %s not finished after %s", job.Name, o.cfg.Timeout)
		case <-ticker.C:
		}

		polls++
		status, reason, err := o.status(ctx, job.Name)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			statusErrs++
			o.logger.Warn("Transcription status query failed",
				"job_name", job.Name, "attempt", statusErrs, "error", err)
			if statusErrs >= o.cfg.MaxStatusErrors {
				return job.Status, shared.Errorf(shared.KindJobFailed, err, "query job %s", job.Name)
			}
			continue
		}
		statusErrs = 0
		job.Status = status
		if !status.Terminal() {
			continue
		}

		span.SetAttributes(attribute.Int("job.polls", polls))
		if status == domain.JobFailed {
			job.FailureReason = reason
			return status, shared.Errorf(shared.KindJobFailed, nil, "job %s failed: %s", job.Name, reason)
		}
		return status, nil
	}
}

func (o *Orchestrator) status(ctx context.Context, name string) (domain.JobStatus, string, error) {
	out, err := o.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(name),
	})
	if err != nil {
		return "", "", err
	}
	if out.TranscriptionJob == nil {
		return "", "", errors.New("empty job description")
	}
	j := out.TranscriptionJob
	switch j.TranscriptionJobStatus {
	case types.TranscriptionJobStatusCompleted:
		return domain.JobCompleted, "", nil
	case types.TranscriptionJobStatusFailed:
		return domain.JobFailed, aws.ToString(j.FailureReason), nil
	case types.TranscriptionJobStatusQueued:
		return domain.JobQueued, "", nil
	default:
		return domain.JobRunning, "", nil
	}
}

// result is the subset of the transcription output document we read.
type result struct {
	Results *struct {
		Transcripts []struct {
			Transcript *string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// Fetch reads the job's result object and returns the transcript text.
func (o *Orchestrator) Fetch(ctx context.Context, job *domain.TranscriptionJob) (_ string, err error) {
	ctx, span := tracer.Start(ctx, "fetch transcript",
		trace.WithAttributes(attribute.String("job.name", job.Name)))
	defer span.End()
	defer func() { recordErr(span, err) }()

	data, err := o.store.Get(ctx, job.ResultKey)
	if err != nil {
		return "", shared.Errorf(shared.KindResultFetch, err, "read %s", job.ResultKey)
	}
	text, err := ParseTranscript(data)
	if err != nil {
		return "", shared.Errorf(shared.KindResultFetch, err, "parse %s", job.ResultKey)
	}
	return text, nil
}

// ParseTranscript extracts results.transcripts[0].transcript from a
// transcription output document. Blank transcripts are rejected.
func ParseTranscript(data []byte) (string, error) {
	var doc result
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("decode result: %w", err)
	}
	if doc.Results == nil || len(doc.Results.Transcripts) == 0 {
		return "", errors.New("result has no transcripts")
	}
	t := doc.Results.Transcripts[0].Transcript
	if t == nil {
		return "", errors.New("first transcript has no text field")
	}
	text := strings.TrimSpace(*t)
	if text == "" {
		return "", errors.New("transcript is empty")
	}
	return text, nil
}

func recordErr(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
