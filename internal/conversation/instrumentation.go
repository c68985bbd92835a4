package conversation

import "go.opentelemetry.io/otel"

const scopeName = "github.com/Sujithrt/interview-prep/internal/conversation"

var tracer = otel.Tracer(scopeName)
