package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/meetkit/agent-relay/recallapi"
	"github.com/meetkit/agent-relay/telemetry"
)

// Webhook event names pushed by the provider.
const (
	EventEndpointConnected = "endpoint.connected"
	EventTranscriptData    = "transcript.data"
)

// UnknownSpeaker attributes transcript lines whose participant name is absent.
const UnknownSpeaker = "Unknown Speaker"

// ErrMeetingURLRequired rejects deployments without a meeting URL before any
// store mutation or remote call happens.
var ErrMeetingURLRequired = fmt.Errorf("meeting url is required")

// placeholderBotIDs are the literal forms the overlay page arrives with when
// the provider has not substituted the real bot id into the camera URL.
var placeholderBotIDs = map[string]struct{}{
	"":                   {},
	"{BOT_ID}":           {},
	"{{BOT_ID}}":         {},
	"%7BBOT_ID%7D":       {},
	"%7B%7BBOT_ID%7D%7D": {},
	"BOT_ID":             {},
	"undefined":          {},
	"null":               {},
}

// IsPlaceholderBotID reports whether id is one of the reserved sentinel forms
// meaning "the caller does not yet know its real bot id".
func IsPlaceholderBotID(id string) bool {
	_, ok := placeholderBotIDs[id]
	return ok
}

// Provisioner is the provider client surface the service depends on.
// *recallapi.Client satisfies it.
type Provisioner interface {
	CreateBot(ctx context.Context, req recallapi.CreateBotRequest) (*recallapi.Bot, error)
	GetBot(ctx context.Context, botID string) (*recallapi.Bot, error)
	ListBots(ctx context.Context) ([]recallapi.Bot, error)
	DeleteBot(ctx context.Context, botID string) error
	DeleteBotMedia(ctx context.Context, botID string) error
}

// ServiceConfig carries the tunables the service needs from config.
type ServiceConfig struct {
	AgentURL            string
	PublicBaseURL       string
	DefaultBotName      string
	TranscriptMaxLines  int
	PlayDebounceSeconds float64
}

// Service composes the relay stores and the lifecycle tracker and exposes
// the ingestion, retrieval, and deployment operations the HTTP layer calls.
type Service struct {
	Transcripts *TranscriptStore
	Audio       *AudioCommandStore

	// Now returns the current time as unix seconds; overridable in tests.
	Now func() float64

	tracker  *BotLifecycleTracker
	provider Provisioner
	cfg      ServiceConfig
}

// NewService wires the stores, tracker, and provider client together.
func NewService(provider Provisioner, cfg ServiceConfig) *Service {
	if cfg.DefaultBotName == "" {
		cfg.DefaultBotName = "AI Assistant"
	}
	return &Service{
		Transcripts: NewTranscriptStore(cfg.TranscriptMaxLines),
		Audio:       NewAudioCommandStore(cfg.PlayDebounceSeconds),
		Now:         func() float64 { return float64(time.Now().UnixNano()) / float64(time.Second) },
		tracker:     NewBotLifecycleTracker(),
		provider:    provider,
		cfg:         cfg,
	}
}

// WebhookEvent is the envelope the provider posts for transcript and
// lifecycle events.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Bot struct {
			ID string `json:"id"`
		} `json:"bot"`
		Data struct {
			Participant struct {
				Name string `json:"name"`
			} `json:"participant"`
			Words []struct {
				Text string `json:"text"`
			} `json:"words"`
		} `json:"data"`
	} `json:"data"`
}

// HandleWebhook ingests a provider webhook. Unrecognized events, transcript
// events without a bot id, and empty word lists are acknowledged without any
// state change; webhook ingestion never fails.
func (s *Service) HandleWebhook(ev WebhookEvent) {
	telemetry.CountWebhookEvent(ev.Event)
	switch ev.Event {
	case EventEndpointConnected:
		slog.Debug("webhook: transcript endpoint connected")
	case EventTranscriptData:
		botID := ev.Data.Bot.ID
		if botID == "" || len(ev.Data.Data.Words) == 0 {
			return
		}
		words := make([]string, 0, len(ev.Data.Data.Words))
		for _, w := range ev.Data.Data.Words {
			words = append(words, w.Text)
		}
		speaker := ev.Data.Data.Participant.Name
		if speaker == "" {
			speaker = UnknownSpeaker
		}
		s.Transcripts.Append(botID, TranscriptLine{
			Speaker:   speaker,
			Text:      strings.Join(words, " "),
			Timestamp: s.Now(),
		})
		telemetry.CountTranscriptLine()
	default:
		slog.Debug("webhook: ignoring event", slog.String("event", ev.Event))
	}
}

// resolveBotID applies the placeholder-resolution algorithm against the
// given key set: a sentinel resolves to the first key in sorted order, and a
// concrete id with no entry falls back to the first available key rather
// than returning empty. Never errors; ("", false) means the store is empty.
func resolveBotID(id string, keys []string) (string, bool) {
	resolved := id
	if IsPlaceholderBotID(id) {
		if len(keys) == 0 {
			return "", false
		}
		resolved = keys[0]
	}
	for _, k := range keys {
		if k == resolved {
			return resolved, true
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	return keys[0], true
}

// Transcript returns the transcript for botID (placeholder forms resolved),
// or an empty slice when nothing is tracked. Indistinguishable at the
// protocol boundary from "bot exists but has said nothing".
func (s *Service) Transcript(botID string) []TranscriptLine {
	id, ok := resolveBotID(botID, s.Transcripts.Bots())
	if !ok {
		return []TranscriptLine{}
	}
	telemetry.CountTranscriptPoll()
	return s.Transcripts.Snapshot(id)
}

// NextAudioCommand returns and consumes the pending audio command for botID
// (placeholder forms resolved). False means nothing is pending.
func (s *Service) NextAudioCommand(botID string) (AudioCommand, bool) {
	id, ok := resolveBotID(botID, s.Audio.Bots())
	if !ok {
		return AudioCommand{}, false
	}
	cmd, ok := s.Audio.Take(id)
	if ok {
		telemetry.CountAudioCommandServed(cmd.Command)
	}
	return cmd, ok
}

// RequestPlay enqueues a play command for botID. Returns false when the
// command was debounced against a still-unserved recent play.
func (s *Service) RequestPlay(botID, audioFile string) (bool, error) {
	if audioFile == "" {
		return false, fmt.Errorf("audio file is required")
	}
	accepted := s.Audio.SetPlay(botID, audioFile, s.Now())
	if accepted {
		telemetry.CountAudioCommandSet(CommandPlay)
	}
	return accepted, nil
}

// RequestStop enqueues a stop command for botID. Never rejected.
func (s *Service) RequestStop(botID string) {
	s.Audio.SetStop(botID, s.Now())
	telemetry.CountAudioCommandSet(CommandStop)
}

// OverlayURL builds the camera webpage URL handed to the provider. The
// {BOT_ID} template is substituted by the provider; when it is not, the
// overlay falls back to placeholder resolution against this backend.
func (s *Service) OverlayURL() string {
	return s.cfg.AgentURL + "?bot_id={BOT_ID}&backend_url=" + url.QueryEscape(s.cfg.PublicBaseURL)
}

// WebhookURL is where the provider pushes transcript events.
func (s *Service) WebhookURL() string {
	if s.cfg.PublicBaseURL == "" {
		return ""
	}
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/webhook/transcript"
}

// Deploy provisions a new meeting bot. Stale store entries are cleaned up
// both before the provider call and after the new bot is recorded; provider
// failures are returned as-is (no retry) with no deployment recorded.
func (s *Service) Deploy(ctx context.Context, meetingURL, botName string) (*recallapi.Bot, error) {
	if meetingURL == "" {
		return nil, ErrMeetingURLRequired
	}
	if botName == "" {
		botName = s.cfg.DefaultBotName
	}

	s.Cleanup(ctx)

	bot, err := s.provider.CreateBot(ctx, recallapi.CreateBotRequest{
		MeetingURL: meetingURL,
		BotName:    botName,
		WebhookURL: s.WebhookURL(),
		OverlayURL: s.OverlayURL(),
	})
	if err != nil {
		telemetry.CountDeploy(false)
		return nil, err
	}

	s.tracker.RecordDeployment(bot.ID)
	s.Cleanup(ctx)
	telemetry.CountDeploy(true)
	slog.Info("agent deployed", slog.String("bot_id", bot.ID), slog.String("bot_name", botName))
	return bot, nil
}

// Cleanup evicts stale bot data from both stores, returning the kept id.
// Exposed for the manual endpoint and the background sweeper.
func (s *Service) Cleanup(ctx context.Context) (string, bool) {
	return s.tracker.Cleanup(ctx, s.Transcripts, s.Audio, s.provider)
}

// LatestBotID returns the most recently deployed bot id, if any.
func (s *Service) LatestBotID() (string, bool) {
	return s.tracker.MostRecent()
}

// ActiveBots returns transcript line counts keyed by tracked bot id.
func (s *Service) ActiveBots() map[string]int {
	return s.Transcripts.Counts()
}

// Provider exposes the underlying provisioner for passthrough endpoints
// (bot status, raw listing, delete bot / delete media).
func (s *Service) Provider() Provisioner {
	return s.provider
}
