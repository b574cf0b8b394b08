// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	WebhookEvents       *prometheus.CounterVec
	TranscriptLines     prometheus.Counter
	TranscriptPolls     prometheus.Counter
	AudioCommandsSet    *prometheus.CounterVec
	AudioCommandsServed *prometheus.CounterVec
	DeploysSucceeded    prometheus.Counter
	DeploysFailed       prometheus.Counter

	// Gauges
	ActiveBotsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{Name: "relay_webhook_events_total", Help: "Webhook events received, by event name"}, []string{"event"})
		TranscriptLines = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_transcript_lines_total", Help: "Transcript lines stored"})
		TranscriptPolls = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_transcript_polls_total", Help: "Transcript poll requests resolved to a tracked bot"})
		AudioCommandsSet = promauto.NewCounterVec(prometheus.CounterOpts{Name: "relay_audio_commands_set_total", Help: "Audio commands accepted, by command"}, []string{"command"})
		AudioCommandsServed = promauto.NewCounterVec(prometheus.CounterOpts{Name: "relay_audio_commands_served_total", Help: "Audio commands delivered to the overlay, by command"}, []string{"command"})
		DeploysSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_deploys_succeeded_total", Help: "Successful bot deployments"})
		DeploysFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "relay_deploys_failed_total", Help: "Failed bot deployments"})
		ActiveBotsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "relay_active_bots", Help: "Bot ids currently holding transcript data"})
	})
}

// CountWebhookEvent increments the webhook counter if metrics are initialized.
func CountWebhookEvent(event string) {
	if WebhookEvents != nil {
		WebhookEvents.WithLabelValues(event).Inc()
	}
}

// CountTranscriptLine records one stored transcript line.
func CountTranscriptLine() {
	if TranscriptLines != nil {
		TranscriptLines.Inc()
	}
}

// CountTranscriptPoll records one resolved transcript poll.
func CountTranscriptPoll() {
	if TranscriptPolls != nil {
		TranscriptPolls.Inc()
	}
}

// CountAudioCommandSet records an accepted play/stop command.
func CountAudioCommandSet(command string) {
	if AudioCommandsSet != nil {
		AudioCommandsSet.WithLabelValues(command).Inc()
	}
}

// CountAudioCommandServed records a command delivered to the overlay.
func CountAudioCommandServed(command string) {
	if AudioCommandsServed != nil {
		AudioCommandsServed.WithLabelValues(command).Inc()
	}
}

// CountDeploy records a deployment outcome.
func CountDeploy(succeeded bool) {
	if succeeded {
		if DeploysSucceeded != nil {
			DeploysSucceeded.Inc()
		}
	} else if DeploysFailed != nil {
		DeploysFailed.Inc()
	}
}

// SetActiveBots records how many bot ids currently hold transcript data.
func SetActiveBots(n int) {
	if ActiveBotsGauge != nil {
		ActiveBotsGauge.Set(float64(n))
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
