package telemetry

import (
	"context"
	"testing"
)

func TestCountersInitialized(t *testing.T) {
	Init()
	Init() // idempotent

	if WebhookEvents == nil {
		t.Error("WebhookEvents counter not initialized")
	}
	if TranscriptLines == nil {
		t.Error("TranscriptLines counter not initialized")
	}
	if AudioCommandsSet == nil || AudioCommandsServed == nil {
		t.Error("audio command counters not initialized")
	}
	if DeploysSucceeded == nil || DeploysFailed == nil {
		t.Error("deploy counters not initialized")
	}
	if ActiveBotsGauge == nil {
		t.Error("ActiveBotsGauge not initialized")
	}
}

func TestHelpersAfterInit(t *testing.T) {
	Init()

	// Helpers must accept any label value without panicking.
	CountWebhookEvent("transcript.data")
	CountWebhookEvent("endpoint.connected")
	CountWebhookEvent("something.else")
	CountTranscriptLine()
	CountTranscriptPoll()
	CountAudioCommandSet("play")
	CountAudioCommandSet("stop")
	CountAudioCommandServed("play")
	CountDeploy(true)
	CountDeploy(false)
	SetActiveBots(0)
	SetActiveBots(3)
}

func TestCorrelation(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("GetCorrelation on bare context = %q, want empty", got)
	}

	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Errorf("GetCorrelation = %q, want abc-123", got)
	}

	if logger := LoggerWithCorr(ctx); logger == nil {
		t.Error("LoggerWithCorr returned nil")
	}
	if logger := LoggerWithCorr(context.Background()); logger == nil {
		t.Error("LoggerWithCorr without corr returned nil")
	}
}
