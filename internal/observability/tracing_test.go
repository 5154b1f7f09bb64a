package observability

import (
	"context"
	"testing"
)

func TestTracingConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("SWEEP_TRACING_ENABLED", "")
	t.Setenv("SWEEP_TRACING_EXPORTER", "")
	t.Setenv("SWEEP_TRACING_SERVICE_NAME", "")
	t.Setenv("SWEEP_TRACING_SAMPLE_RATIO", "")
	t.Setenv("SWEEP_OTLP_ENDPOINT", "")

	cfg := TracingConfigFromEnv()
	if cfg.Enabled {
		t.Errorf("Enabled = true, want false")
	}
	if cfg.Exporter != "stdout" {
		t.Errorf("Exporter = %q, want stdout", cfg.Exporter)
	}
	if cfg.ServiceName != "egress-sweep" {
		t.Errorf("ServiceName = %q, want egress-sweep", cfg.ServiceName)
	}
	if cfg.SampleRatio != 1.0 {
		t.Errorf("SampleRatio = %v, want 1.0", cfg.SampleRatio)
	}
}

func TestTracingConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("SWEEP_TRACING_ENABLED", "TRUE")
	t.Setenv("SWEEP_TRACING_EXPORTER", "OTLP")
	t.Setenv("SWEEP_TRACING_SERVICE_NAME", "sweep-staging")
	t.Setenv("SWEEP_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("SWEEP_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled {
		t.Errorf("Enabled = false, want true")
	}
	if cfg.Exporter != "otlp" {
		t.Errorf("Exporter = %q, want otlp", cfg.Exporter)
	}
	if cfg.ServiceName != "sweep-staging" {
		t.Errorf("ServiceName = %q, want sweep-staging", cfg.ServiceName)
	}
	if cfg.SampleRatio != 0.25 {
		t.Errorf("SampleRatio = %v, want 0.25", cfg.SampleRatio)
	}
	if cfg.Endpoint != "collector:4317" {
		t.Errorf("Endpoint = %q, want collector:4317", cfg.Endpoint)
	}
}

func TestTracingConfigFromEnv_InvalidRatioKeepsDefault(t *testing.T) {
	t.Setenv("SWEEP_TRACING_SAMPLE_RATIO", "2.5")
	if cfg := TracingConfigFromEnv(); cfg.SampleRatio != 1.0 {
		t.Errorf("SampleRatio = %v, want 1.0", cfg.SampleRatio)
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown returned error: %v", err)
	}
}
