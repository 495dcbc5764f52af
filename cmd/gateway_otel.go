//go:build otel

package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/faqclaw/internal/config"
	"github.com/nextlevelbuilder/faqclaw/internal/tracing"
)

// initTracing installs the OTLP tracer provider when telemetry is enabled.
// Only compiled with -tags otel. The returned func flushes pending spans.
func initTracing(ctx context.Context, cfg *config.Config) func() {
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint == "" {
		slog.Debug("OTel export available but not enabled (set telemetry.enabled + telemetry.endpoint)")
		return func() {}
	}

	shutdown, err := tracing.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		slog.Warn("failed to create OTel exporter", "error", err)
		return func() {}
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("OTel shutdown failed", "error", err)
		}
	}
}
