package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/meetkit/agent-relay/relay"
	"github.com/meetkit/agent-relay/telemetry"
)

// HandleTranscriptWebhook ingests provider transcript/lifecycle events.
// Ingestion never fails: malformed or unrecognized payloads are acknowledged
// so the provider does not retry them forever.
func (h *Handlers) HandleTranscriptWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var ev relay.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		telemetry.LoggerWithCorr(r.Context()).Warn("webhook: undecodable payload", slog.Any("err", err))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	h.svc.HandleWebhook(ev)
	telemetry.SetActiveBots(len(h.svc.ActiveBots()))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
