package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/meetkit/agent-relay/config"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// HandleDashboard renders the operator dashboard. The catch-all route also
// lands here, so anything that isn't exactly "/" is a 404.
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Name    string
		Version string
	}{Name: ServiceName, Version: config.Version}
	if err := dashboardTemplate.Execute(w, data); err != nil {
		slog.Warn("dashboard render failed", slog.Any("err", err))
	}
}

// HandleVersion reports service name and version for the overlay's debug display.
func (h *Handlers) HandleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    ServiceName,
		"version": config.Version,
	})
}

// HandleAudioFile serves audio files from the configured directory. ServeFile
// handles byte-range requests, which the overlay's HTML5 audio element uses.
func (h *Handlers) HandleAudioFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/audio/")
	if name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path.Join(h.cfg.AudioDir, name))
}
