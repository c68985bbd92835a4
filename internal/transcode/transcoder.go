// Package transcode converts client-captured audio clips into the waveform
// format speech recognition expects.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Sujithrt/interview-prep/internal/shared"
)

const (
	sampleRate = "44100"
	channels   = "1"
	maxStderr  = 2048
)

// Artifact is the pair of files written for one turn. The caller owns both
// once Convert returns successfully and must call Remove.
type Artifact struct {
	SourcePath   string
	WaveformPath string

	remove func(string) error
}

// Remove deletes both files. Missing files are not an error.
func (a *Artifact) Remove() error {
	if a == nil {
		return nil
	}
	remove := a.remove
	if remove == nil {
		remove = os.Remove
	}
	var errs []error
	for _, p := range []string{a.SourcePath, a.WaveformPath} {
		if p == "" {
			continue
		}
		if err := remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Transcoder runs ffmpeg to produce mono 44.1 kHz PCM WAV files.
type Transcoder struct {
	ffmpegPath string
	workDir    string
	runner     commandRunner
	logger     *slog.Logger

	writeFile func(name string, data []byte, perm os.FileMode) error
	stat      func(name string) (os.FileInfo, error)
	remove    func(name string) error
	mkdirAll  func(path string, perm os.FileMode) error
}

// New creates a Transcoder writing its scratch files under workDir.
func New(ffmpegPath, workDir string, logger *slog.Logger) *Transcoder {
	if logger == nil {
		logger = slog.Default()
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		workDir:    workDir,
		runner:     &execRunner{},
		logger:     logger,
		writeFile:  os.WriteFile,
		stat:       os.Stat,
		remove:     os.Remove,
		mkdirAll:   os.MkdirAll,
	}
}

// Convert writes clip to audio-<turnID>.webm and converts it to
// audio-<turnID>.wav. On failure nothing is left on disk.
func (t *Transcoder) Convert(ctx context.Context, clip []byte, turnID string) (_ *Artifact, err error) {
	ctx, span := tracer.Start(ctx, "transcode audio")
	defer span.End()
	span.SetAttributes(attribute.String("turn.id", turnID), attribute.Int("audio.bytes", len(clip)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if err := t.mkdirAll(t.workDir, 0o755); err != nil {
		return nil, shared.Errorf(shared.KindConversion, err, "create work dir %s", t.workDir)
	}

	art := &Artifact{
		SourcePath:   filepath.Join(t.workDir, "audio-"+turnID+".webm"),
		WaveformPath: filepath.Join(t.workDir, "audio-"+turnID+".wav"),
		remove:       t.remove,
	}
	defer func() {
		if err != nil {
			if rmErr := art.Remove(); rmErr != nil {
				t.logger.Warn("Failed to remove transcode artifacts", "turn_id", turnID, "error", rmErr)
			}
		}
	}()

	if err := t.writeFile(art.SourcePath, clip, 0o600); err != nil {
		return nil, shared.Errorf(shared.KindConversion, err, "write source clip")
	}

	// Size is checked on the written file so a short write is caught too.
	info, err := t.stat(art.SourcePath)
	if err != nil {
		return nil, shared.Errorf(shared.KindConversion, err, "stat source clip")
	}
	if info.Size() == 0 {
		return nil, shared.Errorf(shared.KindEmptyInput, nil, "audio clip for turn %s is empty", turnID)
	}

	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-c:a", "libopus",
		"-i", art.SourcePath,
		"-ac", channels,
		"-ar", sampleRate,
		"-f", "wav",
		art.WaveformPath,
	}
	res, runErr := t.runner.Run(ctx, t.ffmpegPath, args...)
	if runErr != nil {
		return nil, shared.Errorf(shared.KindConversion, runErr,
			"ffmpeg exited %d: %s", res.ExitCode, truncate(res.Stderr, maxStderr))
	}
	if _, err := t.stat(art.WaveformPath); err != nil {
		return nil, shared.Errorf(shared.KindConversion, err, "ffmpeg completed but output file is missing")
	}

	t.logger.Debug("Audio converted", "turn_id", turnID, "bytes", len(clip))
	return art, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// String is used in log lines.
func (a *Artifact) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s -> %s", a.SourcePath, a.WaveformPath)
}
