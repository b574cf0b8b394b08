// Package server exposes the HTTP API handlers.
package server

import (
	"github.com/meetkit/agent-relay/config"
	"github.com/meetkit/agent-relay/relay"
)

// ServiceName is reported alongside the version to the overlay's debug display.
const ServiceName = "agent-relay"

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	svc *relay.Service
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(svc *relay.Service, cfg *config.Config) *Handlers {
	return &Handlers{svc: svc, cfg: cfg}
}
