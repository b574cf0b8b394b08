package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/meetkit/agent-relay/recallapi"
	"github.com/meetkit/agent-relay/telemetry"
)

// HandleDeployAgent provisions a meeting bot carrying the agent overlay.
// Caller input errors are rejected before any remote call; provider failures
// are surfaced with the provider's status and message, without retry.
func (h *Handlers) HandleDeployAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		MeetingURL string `json:"meeting_url"`
		AgentName  string `json:"agent_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MeetingURL == "" {
		writeJSONError(w, http.StatusBadRequest, "Meeting URL is required")
		return
	}
	if err := h.cfg.ValidateDeployReady(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, span := telemetry.StartSpan(r.Context(), "relay", "deploy-agent")
	defer span.End()

	bot, err := h.svc.Deploy(ctx, req.MeetingURL, req.AgentName)
	if err != nil {
		telemetry.RecordError(span, err)
		var apiErr *recallapi.APIError
		if errors.As(err, &apiErr) {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to deploy agent: %s", apiErr.Message))
			return
		}
		telemetry.LoggerWithCorr(ctx).Error("deploy failed", slog.Any("err", err))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	telemetry.SetSpanSuccess(span)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"bot_id":  bot.ID,
		"message": "AI agent deployed to meeting successfully!",
	})
}

// HandleBotStatus proxies a single bot's provider status to the dashboard.
func (h *Handlers) HandleBotStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	botID, _ := trimPathSegment(r.URL.Path, "/bot-status/")
	if botID == "" {
		http.NotFound(w, r)
		return
	}
	bot, err := h.svc.Provider().GetBot(r.Context(), botID)
	if err != nil {
		var apiErr *recallapi.APIError
		if errors.As(err, &apiErr) {
			writeJSONError(w, http.StatusNotFound, "Bot not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bot)
}
