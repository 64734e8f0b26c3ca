package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func restoreGlobal(t *testing.T) {
	t.Helper()
	prev := otel.GetTracerProvider()
	t.Cleanup(func() {
		if otel.GetTracerProvider() != prev {
			otel.SetTracerProvider(prev)
		}
	})
}

func TestSetupDisabledIsNoop(t *testing.T) {
	restoreGlobal(t)
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), Config{Enabled: false, Stdout: true})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatal("disabled setup replaced the global provider")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupStdoutExportsSpans(t *testing.T) {
	restoreGlobal(t)
	var buf bytes.Buffer

	shutdown, err := Setup(context.Background(), Config{
		Enabled:     true,
		ServiceName: "quiz-sessions",
		Version:     "test",
		Stdout:      true,
		Writer:      &buf,
		SampleRatio: 1,
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "session.start")
	if !span.SpanContext().IsValid() {
		t.Fatal("span context not valid under the installed provider")
	}
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"Name": "session.start"`) {
		t.Fatalf("span not exported: %s", out)
	}
	if !strings.Contains(out, "quiz-sessions") {
		t.Fatalf("service name missing from resource: %s", out)
	}
}

func TestSetupWithoutExporterStillAssignsIDs(t *testing.T) {
	restoreGlobal(t)

	shutdown, err := Setup(context.Background(), Config{Enabled: true, ServiceName: "svc", SampleRatio: 1})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer shutdown(context.Background())

	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	if sc := trace.SpanContextFromContext(ctx); !sc.IsValid() || !sc.IsSampled() {
		t.Fatalf("span context = %+v", sc)
	}
}

func TestSetupOTLPEndpoint(t *testing.T) {
	restoreGlobal(t)

	// Non-routable address; nothing is exported before shutdown.
	shutdown, err := Setup(context.Background(), Config{Enabled: true, ServiceName: "svc", Endpoint: "http://192.0.2.1:4318", SampleRatio: 1})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOffSampler"},
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0.5, "ParentBased"},
	}
	for _, tt := range tests {
		if got := sampler(tt.ratio).Description(); !strings.HasPrefix(got, tt.want) {
			t.Errorf("sampler(%v) = %s, want prefix %s", tt.ratio, got, tt.want)
		}
	}
}
