package server

import (
	"net/http"

	"github.com/meetkit/agent-relay/telemetry"
)

// HandleLatestBotID returns the most recently deployed bot id, used by the
// overlay when it was loaded with a placeholder id.
func (h *Handlers) HandleLatestBotID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := h.svc.LatestBotID()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "bot_id": id})
}

// HandleActiveBots lists bot ids currently holding transcript data with
// their line counts.
func (h *Handlers) HandleActiveBots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	bots := h.svc.ActiveBots()
	telemetry.SetActiveBots(len(bots))
	writeJSON(w, http.StatusOK, map[string]any{"active_bots": bots})
}

// HandleRecallBots proxies the provider's full bot listing (overlay fallback
// when neither a recorded deployment nor transcript data exists).
func (h *Handlers) HandleRecallBots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	bots, err := h.svc.Provider().ListBots(r.Context())
	if err != nil {
		writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bots": bots})
}

// HandleCleanup triggers lifecycle cleanup manually: evict everything except
// the current bot's data. Safe to repeat.
func (h *Handlers) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	kept, ok := h.svc.Cleanup(r.Context())
	telemetry.SetActiveBots(len(h.svc.ActiveBots()))
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "no active bot identified"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "kept_bot_id": kept})
}
