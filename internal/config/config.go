// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Model providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendOrigin  string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	MaxAudioBytes   int64
	GRPCHealthAddr  string

	Model       ModelConfig
	AWS         AWSConfig
	Recognition RecognitionConfig
	Synthesis   SynthesisConfig
	Transcode   TranscodeConfig
	Archive     ArchiveConfig
	PromptsFile string
}

// ModelConfig selects and authenticates the conversation model.
type ModelConfig struct {
	Provider      string
	Name          string
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	Timeout       time.Duration
}

// AWSConfig holds region and static credentials for S3, Transcribe and Polly.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// RecognitionConfig controls transcription jobs.
type RecognitionConfig struct {
	LanguageCode    string
	JobNamePrefix   string
	PollInterval    time.Duration
	Timeout         time.Duration
	MaxStatusErrors int
}

// SynthesisConfig controls speech synthesis.
type SynthesisConfig struct {
	Engine string
	Voices []string
}

// TranscodeConfig locates ffmpeg and its scratch directory.
type TranscodeConfig struct {
	FFmpegPath string
	WorkDir    string
}

// ArchiveConfig controls the finished-interview archive.
type ArchiveConfig struct {
	DBPath    string
	Retention time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "5001"),
		FrontendOrigin:  getEnv("FRONTEND_ORIGIN", ""),
		LogLevel:        getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxAudioBytes:   int64(getEnvInt("MAX_AUDIO_BYTES", 16<<20)),
		GRPCHealthAddr:  getEnv("GRPC_HEALTH_ADDR", ""),
		Model: ModelConfig{
			Provider:      strings.ToLower(getEnv("MODEL_PROVIDER", ProviderOpenAI)),
			Name:          getEnv("MODEL_NAME", ""),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			GeminiKey:     getEnv("GEMINI_API_KEY", ""),
			Timeout:       getEnvDuration("MODEL_TIMEOUT", 60*time.Second),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnvFirst("AWS_ACCESS_KEY_ID", "ACCESS_KEY"),
			SecretAccessKey: getEnvFirst("AWS_SECRET_ACCESS_KEY", "SECRET_KEY"),
			Bucket:          getEnv("BUCKET_NAME", ""),
		},
		Recognition: RecognitionConfig{
			LanguageCode:    getEnv("TRANSCRIBE_LANGUAGE_CODE", ""),
			JobNamePrefix:   getEnv("JOB_NAME_PREFIX", "InterviewTranscriptionJob"),
			PollInterval:    getEnvDuration("POLL_INTERVAL", 2*time.Second),
			Timeout:         getEnvDuration("TRANSCRIBE_TIMEOUT", 3*time.Minute),
			MaxStatusErrors: getEnvInt("MAX_STATUS_ERRORS", 3),
		},
		Synthesis: SynthesisConfig{
			Engine: getEnv("POLLY_ENGINE", "generative"),
			Voices: getEnvList("VOICES", []string{"Matthew", "Ruth"}),
		},
		Transcode: TranscodeConfig{
			FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
			WorkDir:    getEnv("WORK_DIR", os.TempDir()),
		},
		Archive: ArchiveConfig{
			DBPath:    getEnv("ARCHIVE_DB_PATH", "./data/interviews.db"),
			Retention: getEnvDuration("ARCHIVE_RETENTION", 30*24*time.Hour),
		},
		PromptsFile: getEnv("PROMPTS_FILE", ""),
	}

	if cfg.Model.Name == "" {
		cfg.Model.Name = defaultModelName(cfg.Model.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
// Every missing field is reported, not just the first.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT cannot be empty"))
	}
	switch c.Model.Provider {
	case ProviderOpenAI:
		if c.Model.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case ProviderGemini:
		if c.Model.GeminiKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("MODEL_PROVIDER %q is not supported", c.Model.Provider))
	}
	if c.AWS.Region == "" {
		errs = append(errs, errors.New("AWS_REGION cannot be empty"))
	}
	if c.AWS.AccessKeyID == "" || c.AWS.SecretAccessKey == "" {
		errs = append(errs, errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required"))
	}
	if c.AWS.Bucket == "" {
		errs = append(errs, errors.New("BUCKET_NAME cannot be empty"))
	}
	if c.Recognition.LanguageCode == "" {
		errs = append(errs, errors.New("TRANSCRIBE_LANGUAGE_CODE cannot be empty"))
	}
	if c.Recognition.JobNamePrefix == "" {
		errs = append(errs, errors.New("JOB_NAME_PREFIX cannot be empty"))
	}
	if c.Recognition.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be > 0"))
	}
	if c.Recognition.Timeout < c.Recognition.PollInterval {
		errs = append(errs, errors.New("TRANSCRIBE_TIMEOUT must be >= POLL_INTERVAL"))
	}
	if len(c.Synthesis.Voices) == 0 {
		errs = append(errs, errors.New("VOICES cannot be empty"))
	}
	if c.MaxAudioBytes <= 0 {
		errs = append(errs, errors.New("MAX_AUDIO_BYTES must be > 0"))
	}
	if c.Archive.DBPath == "" {
		errs = append(errs, errors.New("ARCHIVE_DB_PATH cannot be empty"))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendOrigin == "" ||
		strings.Contains(c.FrontendOrigin, "localhost") ||
		strings.Contains(c.FrontendOrigin, "127.0.0.1")
}

func defaultModelName(provider string) string {
	if provider == ProviderGemini {
		return "gemini-2.5-flash"
	}
	return "gpt-4o"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvFirst returns the first non-empty value among keys.
func getEnvFirst(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
