// Package prompts renders the interviewer system prompt and the report
// instruction.
package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// file is the YAML layout of a prompts file.
type file struct {
	System string `yaml:"system"`
	Report string `yaml:"report"`
}

// Params are the values available to the system template.
type Params struct {
	Interviewer    string
	JobDescription string
	Resume         string
}

// Set holds parsed prompt templates.
type Set struct {
	system *template.Template
	report string
}

// Default returns the embedded prompt set.
func Default() (*Set, error) {
	return parse(defaultsYAML)
}

// Load reads a prompts file. Fields missing from it fall back to the
// embedded defaults. An empty path returns Default.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var base, override file
	if err := yaml.Unmarshal(defaultsYAML, &base); err != nil {
		return nil, fmt.Errorf("decode default prompts: %w", err)
	}
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("decode prompts file %s: %w", path, err)
	}
	if strings.TrimSpace(override.System) != "" {
		base.System = override.System
	}
	if strings.TrimSpace(override.Report) != "" {
		base.Report = override.Report
	}
	return build(base)
}

func parse(data []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode prompts: %w", err)
	}
	return build(f)
}

func build(f file) (*Set, error) {
	if strings.TrimSpace(f.System) == "" {
		return nil, errors.New("system prompt is empty")
	}
	if strings.TrimSpace(f.Report) == "" {
		return nil, errors.New("report prompt is empty")
	}
	tmpl, err := template.New("system").Option("missingkey=error").Parse(f.System)
	if err != nil {
		return nil, fmt.Errorf("parse system prompt: %w", err)
	}
	return &Set{system: tmpl, report: strings.TrimSpace(f.Report)}, nil
}

// System renders the system prompt. Resume and job description are embedded
// verbatim.
func (s *Set) System(p Params) (string, error) {
	var buf bytes.Buffer
	if err := s.system.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Report returns the report instruction.
func (s *Set) Report() string {
	return s.report
}
