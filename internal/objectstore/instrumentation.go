package objectstore

import "go.opentelemetry.io/otel"

const scopeName = "github.com/Sujithrt/interview-prep/internal/objectstore"

var tracer = otel.Tracer(scopeName)
