// Package recallapi contains a minimal client for the conferencing-bot
// provisioning API: creating a meeting bot with a webpage camera overlay,
// listing/inspecting bots, and deleting bots or their recorded media.
package recallapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://api.recall.ai"

// APIError is a non-2xx response from the provider, surfaced with the status
// code and the provider's message so the caller can relay it verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Message)
}

// Bot is the subset of the provider's bot object the relay cares about.
type Bot struct {
	ID         string `json:"id"`
	Status     string `json:"status,omitempty"`
	MeetingURL string `json:"meeting_url,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// StatusMediaExpired is the provider status for bots whose recording media
// has been purged; such bots are skipped when guessing the active one.
const StatusMediaExpired = "media_expired"

// CreateBotRequest describes the bot to provision. The camera overlay is a
// webpage rendered inside the bot's video feed; transcript events are pushed
// to the webhook URL.
type CreateBotRequest struct {
	MeetingURL string
	BotName    string
	WebhookURL string
	OverlayURL string
}

// Client talks to the bot provisioning API using a static API key.
type Client struct {
	APIKey     string
	BaseURL    string // defaults to the hosted provider endpoint
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return defaultBaseURL
}

// do issues the request with auth headers and decodes non-2xx responses into
// an *APIError carrying the provider's message.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base()+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}

// CreateBot provisions a new meeting bot and returns the provider's bot
// object. The overlay page is given a fixed 1280x720 canvas matching the
// bot's video feed.
func (c *Client) CreateBot(ctx context.Context, req CreateBotRequest) (*Bot, error) {
	if req.MeetingURL == "" {
		return nil, fmt.Errorf("meeting url empty")
	}
	payload := map[string]any{
		"meeting_url": req.MeetingURL,
		"bot_name":    req.BotName,
		"output_media": map[string]any{
			"camera": map[string]any{
				"kind": "webpage",
				"config": map[string]any{
					"url":    req.OverlayURL,
					"width":  1280,
					"height": 720,
				},
			},
		},
	}
	if req.WebhookURL != "" {
		payload["real_time_transcription"] = map[string]any{
			"destination_url": req.WebhookURL,
		}
	}
	raw, err := c.do(ctx, http.MethodPost, "/api/v1/bot/", payload)
	if err != nil {
		return nil, err
	}
	var bot Bot
	if err := json.Unmarshal(raw, &bot); err != nil {
		return nil, err
	}
	if bot.ID == "" {
		return nil, fmt.Errorf("provider response missing bot id")
	}
	return &bot, nil
}

// GetBot fetches a single bot by id.
func (c *Client) GetBot(ctx context.Context, botID string) (*Bot, error) {
	if botID == "" {
		return nil, fmt.Errorf("bot id empty")
	}
	raw, err := c.do(ctx, http.MethodGet, "/api/v1/bot/"+botID+"/", nil)
	if err != nil {
		return nil, err
	}
	var bot Bot
	if err := json.Unmarshal(raw, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// ListBots returns all bots known to the provider. The endpoint has been
// observed to return both a paginated {"results": [...]} envelope and a bare
// array, so both shapes are accepted.
func (c *Client) ListBots(ctx context.Context) ([]Bot, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/v1/bot/", nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Results []Bot `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Results != nil {
		return envelope.Results, nil
	}
	var bots []Bot
	if err := json.Unmarshal(raw, &bots); err != nil {
		return nil, fmt.Errorf("unexpected bot list payload: %w", err)
	}
	return bots, nil
}

// DeleteBot removes the bot from its meeting and the provider.
func (c *Client) DeleteBot(ctx context.Context, botID string) error {
	if botID == "" {
		return fmt.Errorf("bot id empty")
	}
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/bot/"+botID+"/", nil)
	return err
}

// DeleteBotMedia purges the bot's recorded media from the provider.
func (c *Client) DeleteBotMedia(ctx context.Context, botID string) error {
	if botID == "" {
		return fmt.Errorf("bot id empty")
	}
	_, err := c.do(ctx, http.MethodPost, "/api/v1/bot/"+botID+"/delete_media/", nil)
	return err
}
