package testsupport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// W3CDriver is a minimal WebDriver remote end. Each created session gets its
// own URL slot; screenshots return Screenshot.
type W3CDriver struct {
	Screenshot []byte
	// ReportURL, when set, is returned by every current-URL request instead of
	// the last navigated URL.
	ReportURL  string
	FailCreate bool

	mu       sync.Mutex
	nextID   atomic.Int64
	sessions map[string]string
	created  int
	deleted  int
	firefox  map[string]any
}

// Counts reports how many sessions were created and deleted.
func (d *W3CDriver) Counts() (created, deleted int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created, d.deleted
}

// FirefoxOptions returns the moz:firefoxOptions of the last new-session request.
func (d *W3CDriver) FirefoxOptions() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.firefox
}

func (d *W3CDriver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if r.Method == http.MethodPost && path == "/session" {
		d.createSession(w, r)
		return
	}

	rest, ok := strings.CutPrefix(path, "/session/")
	if !ok {
		writeW3CError(w, http.StatusNotFound, "unknown command", r.Method+" "+r.URL.Path)
		return
	}
	id, command, _ := strings.Cut(rest, "/")

	d.mu.Lock()
	defer d.mu.Unlock()
	current, known := d.sessions[id]
	if !known {
		writeW3CError(w, http.StatusNotFound, "invalid session id", id)
		return
	}
	switch {
	case r.Method == http.MethodPost && command == "url":
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeW3CError(w, http.StatusBadRequest, "invalid argument", err.Error())
			return
		}
		d.sessions[id] = body.URL
		writeW3CValue(w, nil)
	case r.Method == http.MethodGet && command == "url":
		if d.ReportURL != "" {
			current = d.ReportURL
		}
		writeW3CValue(w, current)
	case r.Method == http.MethodGet && command == "screenshot":
		writeW3CValue(w, base64.StdEncoding.EncodeToString(d.Screenshot))
	case r.Method == http.MethodDelete && command == "":
		delete(d.sessions, id)
		d.deleted++
		writeW3CValue(w, nil)
	default:
		writeW3CError(w, http.StatusNotFound, "unknown command", r.Method+" "+r.URL.Path)
	}
}

func (d *W3CDriver) createSession(w http.ResponseWriter, r *http.Request) {
	if d.FailCreate {
		writeW3CError(w, http.StatusInternalServerError, "session not created", "browser failed to start")
		return
	}
	var body struct {
		Capabilities struct {
			AlwaysMatch map[string]any `json:"alwaysMatch"`
		} `json:"capabilities"`
	}
	decodeErr := json.NewDecoder(r.Body).Decode(&body)

	id := fmt.Sprintf("session-%d", d.nextID.Add(1))
	d.mu.Lock()
	if d.sessions == nil {
		d.sessions = make(map[string]string)
	}
	d.sessions[id] = ""
	d.created++
	if decodeErr == nil {
		if opts, ok := body.Capabilities.AlwaysMatch["moz:firefoxOptions"].(map[string]any); ok {
			d.firefox = opts
		}
	}
	d.mu.Unlock()

	writeW3CValue(w, map[string]any{
		"sessionId": id,
		"capabilities": map[string]any{
			"browserName":    "firefox",
			"browserVersion": "128.0",
		},
	})
}

func writeW3CValue(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"value": value})
}

func writeW3CError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"value": map[string]any{"error": code, "message": message, "stacktrace": ""},
	})
}
