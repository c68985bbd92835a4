package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultSystemEmbedsMaterialVerbatim(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	resume := "Jane Doe\n- Go, 3 years <b>& more</b>"
	out, err := set.System(Params{Interviewer: "Ruth", JobDescription: "Backend engineer", Resume: resume})
	if err != nil {
		t.Fatalf("System failed: %v", err)
	}
	for _, want := range []string{"Your name is Ruth.", "Backend engineer", resume} {
		if !strings.Contains(out, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if set.Report() == "" {
		t.Fatal("report prompt is empty")
	}
}

func TestLoadOverridesOneField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte("report: Summarize the interview.\n"), 0o600); err != nil {
		t.Fatalf("write prompts file: %v", err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if set.Report() != "Summarize the interview." {
		t.Fatalf("Report = %q", set.Report())
	}
	out, err := set.System(Params{Interviewer: "Matthew"})
	if err != nil {
		t.Fatalf("System failed: %v", err)
	}
	if !strings.Contains(out, "Matthew") {
		t.Fatalf("default system template not kept: %q", out)
	}
}

func TestLoadRejectsBadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte("system: \"Hi {{.Interviewer\"\n"), 0o600); err != nil {
		t.Fatalf("write prompts file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
