package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "rejects missing service name",
			mutate:  func(c *Config) { c.ServiceName = "" },
			wantErr: ErrMissingServiceName,
		},
		{
			name:    "rejects missing service version",
			mutate:  func(c *Config) { c.ServiceVersion = "" },
			wantErr: ErrMissingServiceVersion,
		},
		{
			name:    "rejects negative sample rate",
			mutate:  func(c *Config) { c.SampleRate = -0.1 },
			wantErr: ErrInvalidSampleRate,
		},
		{
			name:    "rejects sample rate above 1.0",
			mutate:  func(c *Config) { c.SampleRate = 1.1 },
			wantErr: ErrInvalidSampleRate,
		},
		{
			name:   "accepts sample rate 0.0",
			mutate: func(c *Config) { c.SampleRate = 0.0 },
		},
		{
			name:   "accepts both signals disabled",
			mutate: func(c *Config) { c.EnableTracing = false; c.EnableMetrics = false },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInitialize(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.ServiceName = ""

		_, err := Initialize(context.Background(), cfg)

		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("with tracing only", func(t *testing.T) {
		tel, cleanup := setupTelemetry(t, true, false)
		defer cleanup()

		if tel.TracerProvider() == nil {
			t.Error("expected tracer provider to be set")
		}
		if tel.MeterProvider() != nil {
			t.Error("expected meter provider to be nil when metrics are disabled")
		}
	})

	t.Run("with metrics only", func(t *testing.T) {
		tel, cleanup := setupTelemetry(t, false, true)
		defer cleanup()

		if tel.MeterProvider() == nil {
			t.Error("expected meter provider to be set")
		}
		if tel.TracerProvider() != nil {
			t.Error("expected tracer provider to be nil when tracing is disabled")
		}
	})

	t.Run("with both signals", func(t *testing.T) {
		tel, cleanup := setupTelemetry(t, true, true)
		defer cleanup()

		if tel.TracerProvider() == nil {
			t.Error("expected tracer provider to be set")
		}
		if tel.MeterProvider() == nil {
			t.Error("expected meter provider to be set")
		}
	})

	t.Run("with both signals disabled", func(t *testing.T) {
		tel, cleanup := setupTelemetry(t, false, false)
		defer cleanup()

		if tel.TracerProvider() != nil {
			t.Error("expected tracer provider to be nil")
		}
		if tel.MeterProvider() != nil {
			t.Error("expected meter provider to be nil")
		}
	})
}

func TestShutdown(t *testing.T) {
	t.Run("shuts down cleanly with both signals enabled", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig()
		cfg.EnableTracing = true
		cfg.EnableMetrics = true

		tel, err := Initialize(ctx, cfg,
			WithTraceExporter(NewNoopTraceExporter()),
			WithMetricExporter(NewNoopMetricExporter()),
		)
		if err != nil {
			t.Fatalf("failed to initialize telemetry: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tel.Shutdown(shutdownCtx); err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	})

	t.Run("shuts down cleanly with nothing initialized", func(t *testing.T) {
		tel := &Telemetry{}

		if err := tel.Shutdown(context.Background()); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name        string
		sampleRate  float64
		description string
	}{
		{"never samples at 0.0", 0.0, "AlwaysOffSampler"},
		{"always samples at 1.0", 1.0, "AlwaysOnSampler"},
		{"ratio samples between", 0.5, "ParentBased"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := createSampler(tt.sampleRate)

			if sampler == nil {
				t.Fatal("expected sampler, got nil")
			}
			if got := sampler.Description(); !strings.Contains(got, tt.description) {
				t.Errorf("expected sampler description to contain %q, got %q", tt.description, got)
			}
		})
	}
}
