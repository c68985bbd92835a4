package recognition

import "go.opentelemetry.io/otel"

const scopeName = "github.com/Sujithrt/interview-prep/internal/recognition"

var tracer = otel.Tracer(scopeName)
