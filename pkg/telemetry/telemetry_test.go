package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	shutdown, err := Init("praxis-test", "v0.0.1")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if shutdown == nil {
		t.Fatal("Shutdown function should not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestInitWithConfigRejectsUnknownExporter(t *testing.T) {
	if _, err := InitWithConfig("praxis-test", "v0.0.1", Config{Exporter: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestInitWithConfigRequiresOTLPEndpoint(t *testing.T) {
	if _, err := InitWithConfig("praxis-test", "v0.0.1", Config{Exporter: "otlp"}); err == nil {
		t.Fatal("expected error when otlp endpoint is missing")
	}
}

func TestConfigureSlogLevelsAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "warn", "json")

	logger.Info("should be filtered")
	logger.Warn("should appear", slog.String("key", "value"))

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Errorf("info line leaked through warn level: %s", out)
	}
	if !strings.Contains(out, "should appear") || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("warn line missing or not json: %s", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
