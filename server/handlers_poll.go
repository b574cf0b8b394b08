package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meetkit/agent-relay/recallapi"
)

// HandleBotDispatcher routes requests under /api/bot/{id}/* to sub-handlers.
func (h *Handlers) HandleBotDispatcher(w http.ResponseWriter, r *http.Request) {
	// crude routing
	botID, tail := trimPathSegment(r.URL.Path, "/api/bot/")
	switch {
	case botID == "":
		http.NotFound(w, r)
	case tail == "transcript":
		h.handleTranscriptPoll(w, r, botID)
	case tail == "audio-command":
		h.handleAudioCommandPoll(w, r, botID)
	case tail == "play":
		h.handlePlay(w, r, botID)
	case tail == "stop":
		h.handleStop(w, r, botID)
	case tail == "leave":
		h.handleLeave(w, r, botID)
	case tail == "media":
		h.handleDeleteMedia(w, r, botID)
	default:
		http.NotFound(w, r)
	}
}

// handleTranscriptPoll returns the bot's transcript lines in arrival order.
// Placeholder bot ids resolve to the active bot; an empty array means either
// "unknown bot" or "nothing said yet" - the overlay treats both the same.
// A ?callback= parameter switches to JSONP for script-tag polling.
func (h *Handlers) handleTranscriptPoll(w http.ResponseWriter, r *http.Request, botID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	lines := h.svc.Transcript(botID)
	if cb := r.URL.Query().Get("callback"); cb != "" {
		writeJSONP(w, cb, lines)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// handleAudioCommandPoll returns and consumes the pending audio command.
// Delivery is at-most-once: after a successful poll the slot reads as empty
// until the operator issues a new command.
func (h *Handlers) handleAudioCommandPoll(w http.ResponseWriter, r *http.Request, botID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cmd, ok := h.svc.NextAudioCommand(botID)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"command": nil})
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

// handlePlay enqueues a play command from the operator dashboard.
func (h *Handlers) handlePlay(w http.ResponseWriter, r *http.Request, botID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		AudioFile string `json:"audio_file"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	accepted, err := h.svc.RequestPlay(botID, req.AudioFile)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !accepted {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "reason": "debounced: play command already pending"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleStop enqueues a stop command. Stop is never debounced.
func (h *Handlers) handleStop(w http.ResponseWriter, r *http.Request, botID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.svc.RequestStop(botID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleLeave makes the bot leave its meeting via the provider.
func (h *Handlers) handleLeave(w http.ResponseWriter, r *http.Request, botID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.svc.Provider().DeleteBot(r.Context(), botID); err != nil {
		writeProviderError(w, err)
		return
	}
	h.svc.Transcripts.Evict(botID)
	h.svc.Audio.Evict(botID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleDeleteMedia purges the bot's recorded media at the provider.
func (h *Handlers) handleDeleteMedia(w http.ResponseWriter, r *http.Request, botID string) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.svc.Provider().DeleteBotMedia(r.Context(), botID); err != nil {
		writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// writeProviderError maps provider failures to responses: structured API
// errors keep their status code, transport failures become a generic 502.
func writeProviderError(w http.ResponseWriter, err error) {
	var apiErr *recallapi.APIError
	if errors.As(err, &apiErr) {
		writeJSONError(w, apiErr.StatusCode, apiErr.Message)
		return
	}
	writeJSONError(w, http.StatusBadGateway, err.Error())
}
