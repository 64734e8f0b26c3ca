package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestInitZapJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Service: "quiz-sessions", Version: "1.2.3", Env: EnvProd, Level: slog.LevelInfo, Output: &buf})
	slog.Debug("hidden")
	slog.Info("booted", slog.String("k", "v"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above debug, got %q", buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", lines[0], err)
	}
	want := map[string]any{"msg": "booted", "service": "quiz-sessions", "env": "prod", "version": "1.2.3", "k": "v"}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v, want %v", k, m[k], v)
		}
	}
	if _, ok := m["ts"]; !ok {
		t.Errorf("missing ts: %v", m)
	}
}

func TestInitTextInDev(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Service: "svc", Level: slog.LevelDebug, Output: &buf})
	slog.Debug("visible")

	out := buf.String()
	if !strings.Contains(out, "msg=visible") || !strings.Contains(out, "service=svc") || !strings.Contains(out, "env=dev") {
		t.Fatalf("unexpected text output %q", out)
	}
}

func TestZapSampling(t *testing.T) {
	tests := []struct {
		name  string
		first int
		every int
		want  int
	}{
		{"disabled", 0, 0, 10},
		{"first two then every fourth", 2, 4, 4},
		{"every defaults to one", 3, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Init(Config{Env: EnvProd, Backend: BackendZap, SampleFirst: tt.first, SampleEvery: tt.every, Output: &buf})
			for i := 0; i < 10; i++ {
				slog.Info("tick")
			}
			if got := strings.Count(buf.String(), `"msg":"tick"`); got != tt.want {
				t.Fatalf("lines = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseEnv(t *testing.T) {
	tests := []struct {
		raw  string
		want Env
	}{
		{"production", EnvProd},
		{" PROD ", EnvProd},
		{"staging", EnvStage},
		{"", EnvDev},
		{"local", EnvDev},
	}
	for _, tt := range tests {
		if got := ParseEnv(tt.raw); got != tt.want {
			t.Errorf("ParseEnv(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"warn+2", slog.LevelWarn + 2},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.raw); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestFromCtxAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Env: EnvProd, Output: &buf})

	FromCtx(context.Background()).Info("plain")
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(),
		trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID}))
	FromCtx(ctx).Info("traced")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", buf.String())
	}
	if strings.Contains(lines[0], "trace_id") {
		t.Fatalf("untraced line has trace id: %s", lines[0])
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["trace_id"] != traceID.String() || m["span_id"] != spanID.String() {
		t.Fatalf("trace attrs = %v %v", m["trace_id"], m["span_id"])
	}
}
