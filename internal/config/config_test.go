package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("BUCKET_NAME", "interviews")
	t.Setenv("TRANSCRIBE_LANGUAGE_CODE", "en-US")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "5001" {
		t.Errorf("Port = %q, want 5001", cfg.Port)
	}
	if cfg.Model.Name != "gpt-4o" {
		t.Errorf("Model.Name = %q, want gpt-4o", cfg.Model.Name)
	}
	if cfg.Recognition.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.Recognition.PollInterval)
	}
	if cfg.Synthesis.Engine != "generative" {
		t.Errorf("Synthesis.Engine = %q, want generative", cfg.Synthesis.Engine)
	}
	if len(cfg.Synthesis.Voices) != 2 {
		t.Errorf("Voices = %v, want two defaults", cfg.Synthesis.Voices)
	}
}

func TestLoadLegacyCredentialNames(t *testing.T) {
	setRequired(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("ACCESS_KEY", "legacy-id")
	t.Setenv("SECRET_KEY", "legacy-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AWS.AccessKeyID != "legacy-id" || cfg.AWS.SecretAccessKey != "legacy-secret" {
		t.Fatalf("unexpected credentials: %+v", cfg.AWS)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("BUCKET_NAME", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing configuration")
	}
	for _, want := range []string{"OPENAI_API_KEY", "BUCKET_NAME"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadGeminiProvider(t *testing.T) {
	setRequired(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MODEL_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model.Provider != ProviderGemini {
		t.Errorf("Provider = %q, want gemini", cfg.Model.Provider)
	}
	if cfg.Model.Name != "gemini-2.5-flash" {
		t.Errorf("Model.Name = %q", cfg.Model.Name)
	}
}

func TestParsingHelpers(t *testing.T) {
	t.Setenv("VOICES", " Joanna , ,Matthew")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POLL_INTERVAL", "not-a-duration")

	if got := getEnvList("VOICES", nil); len(got) != 2 || got[0] != "Joanna" || got[1] != "Matthew" {
		t.Errorf("getEnvList = %v", got)
	}
	if got := getEnvLevel("LOG_LEVEL", slog.LevelInfo); got != slog.LevelDebug {
		t.Errorf("getEnvLevel = %v, want debug", got)
	}
	if got := getEnvDuration("POLL_INTERVAL", time.Second); got != time.Second {
		t.Errorf("getEnvDuration fallback = %v, want 1s", got)
	}
}
