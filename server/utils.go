package server

import (
	"encoding/json"
	"net/http"
	"regexp"
)

// writeJSON encodes v as the response body with the JSON content type.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes {"error": msg} with the given status.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// callbackNamePattern restricts JSONP callback names to plain identifiers so
// the callback parameter cannot inject script.
var callbackNamePattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// writeJSONP wraps the JSON encoding of v in callback(...) for cross-origin
// script-tag polling. Falls back to plain JSON when the callback name is not
// a valid identifier.
func writeJSONP(w http.ResponseWriter, callback string, v any) {
	if !callbackNamePattern.MatchString(callback) {
		writeJSON(w, http.StatusOK, v)
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	_, _ = w.Write([]byte(callback + "("))
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte(");"))
}
