// Package testutil provides shared test doubles for the relay's provider
// dependency so tests never touch the real provisioning API.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/meetkit/agent-relay/recallapi"
)

// FakeProvisioner is an in-memory stand-in for the provider client. Zero
// value is usable; configure the exported fields per test. Every method
// appends its name to Calls so tests can assert call ordering.
type FakeProvisioner struct {
	mu sync.Mutex

	// NextBot is returned from CreateBot when CreateErr is nil.
	NextBot *recallapi.Bot
	// Bots is returned from ListBots when ListErr is nil.
	Bots []recallapi.Bot

	CreateErr error
	ListErr   error
	GetErr    error
	DeleteErr error

	Calls []string
}

func (f *FakeProvisioner) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

// CallNames returns a copy of the recorded call sequence.
func (f *FakeProvisioner) CallNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	copy(out, f.Calls)
	return out
}

func (f *FakeProvisioner) CreateBot(ctx context.Context, req recallapi.CreateBotRequest) (*recallapi.Bot, error) {
	f.record("CreateBot")
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if f.NextBot != nil {
		return f.NextBot, nil
	}
	return &recallapi.Bot{ID: "fake-bot-id"}, nil
}

func (f *FakeProvisioner) GetBot(ctx context.Context, botID string) (*recallapi.Bot, error) {
	f.record("GetBot")
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	for _, b := range f.Bots {
		if b.ID == botID {
			bot := b
			return &bot, nil
		}
	}
	return nil, &recallapi.APIError{StatusCode: 404, Message: fmt.Sprintf("bot %s not found", botID)}
}

func (f *FakeProvisioner) ListBots(ctx context.Context) ([]recallapi.Bot, error) {
	f.record("ListBots")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]recallapi.Bot, len(f.Bots))
	copy(out, f.Bots)
	return out, nil
}

func (f *FakeProvisioner) DeleteBot(ctx context.Context, botID string) error {
	f.record("DeleteBot")
	return f.DeleteErr
}

func (f *FakeProvisioner) DeleteBotMedia(ctx context.Context, botID string) error {
	f.record("DeleteBotMedia")
	return f.DeleteErr
}
