package recallapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateBot(t *testing.T) {
	var gotAuth, gotPath, gotMethod string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotPayload); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		if _, err := w.Write([]byte(`{"id":"bot-1","status":"joining_call"}`)); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	c := &Client{APIKey: "k123", BaseURL: srv.URL}
	bot, err := c.CreateBot(context.Background(), CreateBotRequest{
		MeetingURL: "https://meet.example/xyz",
		BotName:    "AI Assistant",
		WebhookURL: "https://relay.example/webhook/transcript",
		OverlayURL: "https://overlay.example/agent.html?bot_id={BOT_ID}",
	})
	if err != nil {
		t.Fatalf("CreateBot: %v", err)
	}
	if bot.ID != "bot-1" {
		t.Errorf("bot.ID = %q, want bot-1", bot.ID)
	}

	if gotAuth != "Token k123" {
		t.Errorf("Authorization = %q, want Token k123", gotAuth)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/v1/bot/" {
		t.Errorf("request = %s %s, want POST /api/v1/bot/", gotMethod, gotPath)
	}
	if gotPayload["meeting_url"] != "https://meet.example/xyz" || gotPayload["bot_name"] != "AI Assistant" {
		t.Errorf("payload = %v", gotPayload)
	}

	camera, _ := gotPayload["output_media"].(map[string]any)["camera"].(map[string]any)
	if camera["kind"] != "webpage" {
		t.Errorf("camera.kind = %v, want webpage", camera["kind"])
	}
	cfg, _ := camera["config"].(map[string]any)
	if cfg["width"] != float64(1280) || cfg["height"] != float64(720) {
		t.Errorf("camera config = %v, want 1280x720", cfg)
	}
	rtt, _ := gotPayload["real_time_transcription"].(map[string]any)
	if rtt["destination_url"] != "https://relay.example/webhook/transcript" {
		t.Errorf("real_time_transcription = %v", rtt)
	}
}

func TestCreateBot_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"meeting_url": ["Invalid meeting URL"]}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", BaseURL: srv.URL}
	_, err := c.CreateBot(context.Background(), CreateBotRequest{MeetingURL: "nonsense"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", apiErr.StatusCode)
	}
	if apiErr.Message == "" {
		t.Error("provider message lost")
	}
}

func TestCreateBot_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(`{}`)); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", BaseURL: srv.URL}
	if _, err := c.CreateBot(context.Background(), CreateBotRequest{MeetingURL: "https://meet.example/x"}); err == nil {
		t.Error("CreateBot accepted a response with no bot id")
	}
}

func TestListBots_PayloadShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"results envelope", `{"results":[{"id":"a"},{"id":"b"}]}`, 2},
		{"bare array", `[{"id":"a"}]`, 1},
		{"empty envelope", `{"results":[]}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/api/v1/bot/" {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Error(err)
				}
			}))
			defer srv.Close()

			c := &Client{APIKey: "k", BaseURL: srv.URL}
			bots, err := c.ListBots(context.Background())
			if err != nil {
				t.Fatalf("ListBots: %v", err)
			}
			if len(bots) != tt.want {
				t.Errorf("len(bots) = %d, want %d", len(bots), tt.want)
			}
		})
	}
}

func TestGetBot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/bot/bot-9/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if _, err := w.Write([]byte(`{"id":"bot-9","status":"in_call_recording","meeting_url":"https://meet.example/xyz"}`)); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", BaseURL: srv.URL}
	bot, err := c.GetBot(context.Background(), "bot-9")
	if err != nil {
		t.Fatalf("GetBot: %v", err)
	}
	if bot.Status != "in_call_recording" {
		t.Errorf("Status = %q", bot.Status)
	}

	if _, err := c.GetBot(context.Background(), ""); err == nil {
		t.Error("GetBot accepted an empty id")
	}
}

func TestDeleteBotAndMedia(t *testing.T) {
	var gotRequests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequests = append(gotRequests, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", BaseURL: srv.URL}
	if err := c.DeleteBot(context.Background(), "bot-9"); err != nil {
		t.Fatalf("DeleteBot: %v", err)
	}
	if err := c.DeleteBotMedia(context.Background(), "bot-9"); err != nil {
		t.Fatalf("DeleteBotMedia: %v", err)
	}

	want := []string{"DELETE /api/v1/bot/bot-9/", "POST /api/v1/bot/bot-9/delete_media/"}
	for i := range want {
		if gotRequests[i] != want[i] {
			t.Errorf("requests = %v, want %v", gotRequests, want)
		}
	}
}

func TestBaseURLTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/bot/" {
			t.Errorf("path = %s, want /api/v1/bot/", r.URL.Path)
		}
		if _, err := w.Write([]byte(`[]`)); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	c := &Client{APIKey: "k", BaseURL: srv.URL + "/"}
	if _, err := c.ListBots(context.Background()); err != nil {
		t.Fatalf("ListBots: %v", err)
	}
}
