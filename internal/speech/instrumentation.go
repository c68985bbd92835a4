package speech

import "go.opentelemetry.io/otel"

const scopeName = "github.com/Sujithrt/interview-prep/internal/speech"

var tracer = otel.Tracer(scopeName)
