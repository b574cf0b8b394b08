// Package server exposes the HTTP API: deployment, provider webhooks, the
// overlay polling surface, audio file serving, and health/metrics. It includes
// permissive CORS for development and injects correlation IDs into request
// contexts for consistent logging.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meetkit/agent-relay/config"
	"github.com/meetkit/agent-relay/relay"
	"github.com/meetkit/agent-relay/telemetry"
)

// getAdminEndpointPattern matches endpoints that remove remote state and are
// therefore auth-protected and rate-limited: manual cleanup, bot leave, and
// media deletion. Lazily compiled on first use.
var getAdminEndpointPattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`^(/api/cleanup|/api/bot/[^/]+/(leave|media))$`)
})

// NewMux returns the HTTP handler with all routes.
// The provided context is used for rate limiter cleanup goroutine lifecycle.
func NewMux(ctx context.Context, svc *relay.Service, cfg *config.Config) http.Handler {
	authCfg := loadAuthConfig()
	rateLimiterCfg := loadRateLimiterConfig()
	corsCfg := loadCORSConfig()
	rateLimiter := newIPRateLimiter(ctx, rateLimiterCfg)

	handlers := NewHandlers(svc, cfg)

	mux := http.NewServeMux()

	// Metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)

	// Dashboard, version, audio files
	mux.HandleFunc("/", handlers.HandleDashboard)
	mux.HandleFunc("/api/version", handlers.HandleVersion)
	mux.HandleFunc("/audio/", handlers.HandleAudioFile)

	// Deployment and provider passthroughs
	mux.HandleFunc("/deploy-agent", handlers.HandleDeployAgent)
	mux.HandleFunc("/bot-status/", handlers.HandleBotStatus)
	mux.HandleFunc("/api/recall-bots", handlers.HandleRecallBots)

	// Provider webhook
	mux.HandleFunc("/webhook/transcript", handlers.HandleTranscriptWebhook)

	// Relay state endpoints
	mux.HandleFunc("/api/latest-bot-id", handlers.HandleLatestBotID)
	mux.HandleFunc("/api/bots", handlers.HandleActiveBots)
	mux.HandleFunc("/api/cleanup", handlers.HandleCleanup)

	// Per-bot polling and command surface
	mux.HandleFunc("/api/bot/", handlers.HandleBotDispatcher)

	// Selective middleware: destructive endpoints get auth + rate limiting,
	// deployment gets rate limiting only (the dashboard posts it directly).
	selectiveHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getAdminEndpointPattern().MatchString(r.URL.Path) {
			adminAuth(rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mux.ServeHTTP(w, r)
			}), rateLimiter), authCfg).ServeHTTP(w, r)
			return
		}

		if r.URL.Path == "/deploy-agent" {
			rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mux.ServeHTTP(w, r)
			}), rateLimiter).ServeHTTP(w, r)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Wrap with correlation ID injector and tracing middleware
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reuse corr header if provided else generate
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
			telemetry.HTTPURLAttr(r.URL.String()),
		)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		wrappedWriter := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		selectiveHandler.ServeHTTP(wrappedWriter, r.WithContext(ctx))

		telemetry.SetSpanHTTPStatus(span, wrappedWriter.statusCode)
		if wrappedWriter.statusCode >= 400 {
			code, msg := telemetry.ErrorStatus(fmt.Sprintf("HTTP %d", wrappedWriter.statusCode))
			span.SetStatus(code, msg)
		}
	})
	return withCORSConfig(handler, corsCfg)
}

// statusRecorder wraps ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, svc *relay.Service, cfg *config.Config) error {
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewMux(ctx, svc, cfg),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// Use WithoutCancel to inherit context values but allow shutdown to complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}

// trimPathSegment splits "/prefix/rest" style paths used by the manual
// dispatchers below.
func trimPathSegment(path, prefix string) (string, string) {
	tail := strings.TrimPrefix(path, prefix)
	if i := strings.Index(tail, "/"); i >= 0 {
		return tail[:i], tail[i+1:]
	}
	return tail, ""
}
