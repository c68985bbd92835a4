package transcode

import "go.opentelemetry.io/otel"

const scopeName = "github.com/Sujithrt/interview-prep/internal/transcode"

var tracer = otel.Tracer(scopeName)
