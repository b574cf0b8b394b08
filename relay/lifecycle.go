package relay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/meetkit/agent-relay/recallapi"
)

// BotLister is the slice of the provider client the lifecycle tracker needs
// for its fallback path.
type BotLister interface {
	ListBots(ctx context.Context) ([]recallapi.Bot, error)
}

// BotLifecycleTracker owns the "most recent bot" state and directs eviction
// across both stores. The relay tracks exactly one active bot at a time;
// every deployment makes all other bots' data stale.
type BotLifecycleTracker struct {
	mu         sync.Mutex
	mostRecent string
}

// NewBotLifecycleTracker creates a tracker with no recorded deployment.
func NewBotLifecycleTracker() *BotLifecycleTracker {
	return &BotLifecycleTracker{}
}

// RecordDeployment unconditionally overwrites the most recent bot id.
func (t *BotLifecycleTracker) RecordDeployment(botID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mostRecent = botID
}

// MostRecent returns the last recorded bot id, if any.
func (t *BotLifecycleTracker) MostRecent() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mostRecent, t.mostRecent != ""
}

// Cleanup evicts stale entries from both stores, keeping only the current
// bot, and returns the kept id.
//
// When a deployment has been recorded that id is authoritative. Otherwise
// the provider's bot list is consulted: bots with expired media are skipped
// (unless every bot is expired), and the first remaining entry is kept. The
// provider's ordering is assumed, not guaranteed, to put the most recent bot
// first; reliable creation timestamps are unavailable, so this is a known
// limitation rather than a correctness guarantee.
//
// Returns ("", false) when no bots exist or the remote listing fails. Local
// eviction is idempotent and safe to repeat, so partial eviction before a
// failed remote call is acceptable.
func (t *BotLifecycleTracker) Cleanup(ctx context.Context, transcripts *TranscriptStore, audio *AudioCommandStore, lister BotLister) (string, bool) {
	if id, ok := t.MostRecent(); ok {
		transcripts.EvictAllExcept(id)
		audio.EvictAllExcept(id)
		return id, true
	}

	bots, err := lister.ListBots(ctx)
	if err != nil {
		slog.Warn("lifecycle cleanup: provider bot listing failed", slog.Any("err", err))
		return "", false
	}
	if len(bots) == 0 {
		return "", false
	}

	candidates := make([]recallapi.Bot, 0, len(bots))
	for _, b := range bots {
		if b.Status != recallapi.StatusMediaExpired {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		candidates = bots
	}

	keep := candidates[0].ID
	transcripts.EvictAllExcept(keep)
	audio.EvictAllExcept(keep)
	slog.Info("lifecycle cleanup: kept provider-listed bot", slog.String("bot_id", keep), slog.Int("listed", len(bots)))
	return keep, true
}
