// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required provider credentials, use ValidateDeployReady.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Version is reported on /api/version and attached to traces.
const Version = "1.0.0"

type Config struct {
	// Provider (bot provisioning API)
	RecallAPIKey  string
	RecallAPIBase string

	// Overlay / webhooks
	AgentURL      string
	PublicBaseURL string
	AgentName     string

	// Relay tuning
	TranscriptMaxLines  int
	PlayDebounceSeconds float64
	CleanupInterval     time.Duration

	// Storage
	AudioDir string

	// HTTP
	HTTPAddr string
}

// Load reads environment variables and applies defaults. It doesn't fail if the provider
// key is missing; use ValidateDeployReady() when a deployment is requested. Missing
// optional variables fall back to local-dev defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.RecallAPIKey = os.Getenv("RECALL_API_KEY")
	cfg.RecallAPIBase = os.Getenv("RECALL_API_BASE")
	if cfg.RecallAPIBase == "" {
		cfg.RecallAPIBase = "https://api.recall.ai"
	}

	cfg.AgentURL = os.Getenv("AGENT_URL")
	if cfg.AgentURL == "" {
		cfg.AgentURL = "https://localhost:5000/agent.html"
	}
	cfg.PublicBaseURL = os.Getenv("PUBLIC_BASE_URL")
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:8080"
	}
	cfg.AgentName = os.Getenv("AGENT_NAME_DEFAULT")
	if cfg.AgentName == "" {
		cfg.AgentName = "AI Assistant"
	}

	cfg.TranscriptMaxLines = 20
	if v := os.Getenv("TRANSCRIPT_MAX_LINES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid TRANSCRIPT_MAX_LINES: %q", v)
		}
		cfg.TranscriptMaxLines = n
	}

	cfg.PlayDebounceSeconds = 5
	if v := os.Getenv("PLAY_DEBOUNCE_SECONDS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("invalid PLAY_DEBOUNCE_SECONDS: %q", v)
		}
		cfg.PlayDebounceSeconds = f
	}

	cfg.CleanupInterval = 10 * time.Minute
	if v := os.Getenv("CLEANUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid CLEANUP_INTERVAL (duration): %q", v)
		}
		cfg.CleanupInterval = d
	}

	cfg.AudioDir = os.Getenv("AUDIO_DIR")
	if cfg.AudioDir == "" {
		cfg.AudioDir = "audio"
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// ValidateDeployReady checks required fields for provisioning bots against the provider.
func (c *Config) ValidateDeployReady() error {
	if c.RecallAPIKey == "" {
		return fmt.Errorf("missing provider env: require RECALL_API_KEY")
	}
	return nil
}
