// Command agent-relay is the backend for the meeting-agent overlay.
// It:
//   - Loads configuration and initializes structured logging.
//   - Deploys meeting bots through the conferencing-bot provisioning API.
//   - Ingests the provider's real-time transcript webhooks into an in-memory,
//     bounded, per-bot transcript log.
//   - Serves the polling surface the in-meeting overlay uses for transcript
//     lines and audio playback commands, plus the audio files themselves.
//   - Runs a background sweeper that evicts data for stale bots.
//
// All relay state is process-lifetime and lost on restart by design.
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/joho/godotenv"
	"github.com/meetkit/agent-relay/config"
	"github.com/meetkit/agent-relay/recallapi"
	"github.com/meetkit/agent-relay/relay"
	"github.com/meetkit/agent-relay/server"
	"github.com/meetkit/agent-relay/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		// unknown level -> keep info but note once using temporary logger
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateDeployReady(); err != nil {
		slog.Warn("provider key missing, deployments will fail until RECALL_API_KEY is set", slog.Any("err", err))
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("agent-relay", config.Version)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Relay core wired to the provider client
	provider := &recallapi.Client{
		APIKey:  cfg.RecallAPIKey,
		BaseURL: cfg.RecallAPIBase,
	}
	svc := relay.NewService(provider, relay.ServiceConfig{
		AgentURL:            cfg.AgentURL,
		PublicBaseURL:       cfg.PublicBaseURL,
		DefaultBotName:      cfg.AgentName,
		TranscriptMaxLines:  cfg.TranscriptMaxLines,
		PlayDebounceSeconds: cfg.PlayDebounceSeconds,
	})

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("agent-relay starting",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("agent_url", cfg.AgentURL),
		slog.String("public_base_url", cfg.PublicBaseURL),
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx, svc, cfg)
	})
	g.Go(func() error {
		return relay.RunCleanupSweeper(ctx, svc, cfg.CleanupInterval)
	})

	if err := g.Wait(); err != nil {
		slog.Error("exited with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}
