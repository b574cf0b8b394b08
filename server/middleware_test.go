package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAdminAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		username       string
		password       string
		token          string
		reqUsername    string
		reqPassword    string
		reqToken       string
		expectedStatus int
	}{
		{
			name:           "no auth configured - allows request",
			username:       "",
			password:       "",
			token:          "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "valid basic auth",
			username:       "admin",
			password:       "secret123",
			reqUsername:    "admin",
			reqPassword:    "secret123",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid basic auth username",
			username:       "admin",
			password:       "secret123",
			reqUsername:    "wrong",
			reqPassword:    "secret123",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid basic auth password",
			username:       "admin",
			password:       "secret123",
			reqUsername:    "admin",
			reqPassword:    "wrong",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "valid token auth",
			token:          "test-token-12345",
			reqToken:       "test-token-12345",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid token auth",
			token:          "test-token-12345",
			reqToken:       "wrong-token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "token auth takes precedence over basic auth",
			username:       "admin",
			password:       "secret123",
			token:          "test-token-12345",
			reqToken:       "test-token-12345",
			reqUsername:    "wrong",
			reqPassword:    "wrong",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &authConfig{
				adminUsername: tt.username,
				adminPassword: tt.password,
				adminToken:    tt.token,
				enabled:       (tt.username != "" && tt.password != "") || tt.token != "",
			}

			handler := adminAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			}), cfg)

			req := httptest.NewRequest(http.MethodPost, "/api/cleanup", nil)
			if tt.reqUsername != "" || tt.reqPassword != "" {
				req.SetBasicAuth(tt.reqUsername, tt.reqPassword)
			}
			if tt.reqToken != "" {
				req.Header.Set("X-Admin-Token", tt.reqToken)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if tt.expectedStatus == http.StatusUnauthorized {
				if auth := rr.Header().Get("WWW-Authenticate"); auth == "" {
					t.Error("expected WWW-Authenticate header on 401 response")
				}
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	cfg := &rateLimiterConfig{
		enabled:       true,
		requestsPerIP: 3,
		window:        time.Minute,
	}
	limiter := &ipRateLimiter{visitors: make(map[string]*visitor), cfg: cfg}

	for i := 0; i < 3; i++ {
		if !limiter.allow("10.0.0.1") {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}
	if limiter.allow("10.0.0.1") {
		t.Error("request over the limit allowed")
	}
	// Other IPs have independent budgets.
	if !limiter.allow("10.0.0.2") {
		t.Error("fresh IP denied")
	}
}

func TestIPRateLimiterDisabled(t *testing.T) {
	cfg := &rateLimiterConfig{enabled: false, requestsPerIP: 1, window: time.Minute}
	limiter := &ipRateLimiter{visitors: make(map[string]*visitor), cfg: cfg}

	for i := 0; i < 10; i++ {
		if !limiter.allow("10.0.0.1") {
			t.Fatal("disabled limiter denied a request")
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := &rateLimiterConfig{enabled: true, requestsPerIP: 2, window: time.Minute}
	limiter := &ipRateLimiter{visitors: make(map[string]*visitor), cfg: cfg}

	handler := rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), limiter)

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/deploy-agent", nil)
		req.RemoteAddr = "192.0.2.50:4000"
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/deploy-agent", nil)
	req.RemoteAddr = "192.0.2.50:4000"
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("over-limit status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header on 429")
	}

	// X-Forwarded-For identifies the client behind a proxy; a different
	// forwarded IP gets its own budget even from the same socket.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/deploy-agent", nil)
	req.RemoteAddr = "192.0.2.50:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("forwarded client status = %d, want 200", rr.Code)
	}
}

func TestAdminEndpointPattern(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/cleanup", true},
		{"/api/bot/b1/leave", true},
		{"/api/bot/b1/media", true},
		{"/api/bot/b1/transcript", false},
		{"/api/bot/b1/audio-command", false},
		{"/api/bot/b1/play", false},
		{"/deploy-agent", false},
		{"/api/cleanup/extra", false},
	}
	for _, tt := range tests {
		if got := getAdminEndpointPattern().MatchString(tt.path); got != tt.want {
			t.Errorf("admin pattern match %q = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"https://app.example.com", "*.overlay.example"}
	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.example.com", true},
		{"https://evil.example.com", false},
		{"https://cam.overlay.example", true},
		{"https://overlay.example", true},
		{"https://notoverlay.example", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isOriginAllowed(tt.origin, allowed); got != tt.want {
			t.Errorf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestCORSRestrictedMode(t *testing.T) {
	cfg := &corsConfig{permissive: false, allowedOrigins: []string{"https://app.example.com"}}
	handler := withCORSConfig(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), cfg)

	// Allowed origin is echoed back with credentials.
	req := httptest.NewRequest(http.MethodGet, "/api/bots", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("missing Allow-Credentials for allowed origin")
	}

	// Unknown origin gets no CORS headers.
	req = httptest.NewRequest(http.MethodGet, "/api/bots", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for disallowed origin = %q, want empty", got)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"42", 10, 42},
		{"", 10, 10},
		{"abc", 10, 10},
	}
	for _, tt := range tests {
		if got := parseInt(tt.in, tt.def); got != tt.want {
			t.Errorf("parseInt(%q, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestStatusRecorder(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: rr, statusCode: http.StatusOK}
	rec.WriteHeader(http.StatusTeapot)
	if rec.statusCode != http.StatusTeapot {
		t.Errorf("statusCode = %d, want %d", rec.statusCode, http.StatusTeapot)
	}
	fmt.Fprint(rec, "body")
	if rr.Code != http.StatusTeapot {
		t.Errorf("underlying recorder code = %d", rr.Code)
	}
}
