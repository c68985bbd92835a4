package interview

import "go.opentelemetry.io/otel"

const scopeName = "github.com/Sujithrt/interview-prep/internal/interview"

var tracer = otel.Tracer(scopeName)
