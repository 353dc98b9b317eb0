package conversation

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/koscakluka/vocablive/core/conversation"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	wordsDetectedCounter, _     = meter.Int64Counter("vocablive.words.detected")
	sessionsCompletedCounter, _ = meter.Int64Counter("vocablive.sessions.completed")
)
