package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

func TestSetupExportsLogsAndTraces(t *testing.T) {
	var out bytes.Buffer
	ctx := context.Background()

	shutdown, err := Setup(ctx, Options{ServiceName: "vocablive-test", Traces: true, Writer: &out})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	otelslog.NewLogger("telemetry-test").InfoContext(ctx, "session started", "words", 2)
	_, span := otel.Tracer("telemetry-test").Start(ctx, "start session")
	span.End()

	if err := shutdown(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}

	for _, expected := range []string{"session started", "start session", "vocablive-test"} {
		if !strings.Contains(out.String(), expected) {
			t.Fatalf("expected output to contain %q, got %s", expected, out.String())
		}
	}
}
