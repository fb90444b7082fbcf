package route

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"camdetect/internal/config"
	"camdetect/internal/dto"
	"camdetect/internal/logger"
	"camdetect/internal/metrics"
	"camdetect/internal/repository/sqlite"
	"camdetect/internal/service/detection"
	"camdetect/internal/service/websocket"

	gorilla "github.com/gorilla/websocket"
)

type idleController struct{}

func (idleController) LoadModel(string) error { return nil }
func (idleController) Start() error           { return detection.ErrNoModel }
func (idleController) Stop(detection.DestinationPicker) (*detection.StopResult, error) {
	return nil, detection.ErrNotRunning
}
func (idleController) State() dto.StateInfo             { return dto.StateInfo{State: "idle", Elapsed: "00:00:00"} }
func (idleController) StatusHistory() []dto.StatusEntry { return []dto.StatusEntry{} }

func newRouter(t *testing.T, password string) http.Handler {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Password:       password,
		ModelDirectory: filepath.Join(dir, "models"),
		LogDirectory:   filepath.Join(dir, "logs"),
	}
	l, err := logger.New(cfg.LogDirectory, io.Discard, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })

	db, err := sqlite.New(filepath.Join(dir, "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	staticDir := filepath.Join(dir, "static")
	if err := os.MkdirAll(staticDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<h1>dashboard</h1>"), 0644); err != nil {
		t.Fatal(err)
	}

	hub := websocket.NewHubService(l)
	stop := make(chan struct{})
	go hub.Run(stop)
	t.Cleanup(func() { close(stop) })

	return SetupRoutes(Dependencies{
		Config:        cfg,
		Logger:        l,
		Controller:    idleController{},
		Hub:           hub,
		Metrics:       metrics.New(),
		SessionRepo:   sqlite.NewSessionRepository(db),
		DetectionRepo: sqlite.NewDetectionRepository(db),
		StaticDir:     staticDir,
	})
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSetupRoutes(t *testing.T) {
	h := newRouter(t, "")

	tests := []struct {
		path     string
		want     int
		contains string
	}{
		{"/", http.StatusOK, "dashboard"},
		{"/missing", http.StatusNotFound, ""},
		{"/api/detection/state", http.StatusOK, `"state":"idle"`},
		{"/api/status", http.StatusOK, "[]"},
		{"/api/models", http.StatusOK, "[]"},
		{"/api/sessions", http.StatusOK, "[]"},
		{"/api/sessions/totals", http.StatusOK, "{}"},
		{"/metrics", http.StatusOK, "camdetect_running"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(h, tt.path)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.contains)
			}
		})
	}
}

func post(h http.Handler, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSetupRoutes_StartWithoutModel(t *testing.T) {
	h := newRouter(t, "")
	if rec := post(h, "/api/detection/start", "application/json", ""); rec.Code != http.StatusPreconditionFailed {
		t.Errorf("status = %d, want 412", rec.Code)
	}
}

func TestSetupRoutes_PostRequiresJSON(t *testing.T) {
	h := newRouter(t, "")

	paths := []string{
		"/api/model",
		"/api/detection/start",
		"/api/detection/stop",
		"/api/sessions/delete",
		"/logs/info/clear",
	}
	for _, path := range paths {
		for _, contentType := range []string{"", "text/plain", "application/x-www-form-urlencoded", "multipart/form-data; boundary=x"} {
			if rec := post(h, path, contentType, `{"records_path":"x.json"}`); rec.Code != http.StatusUnsupportedMediaType {
				t.Errorf("POST %s as %q: status = %d, want 415", path, contentType, rec.Code)
			}
		}
	}
}

func TestSetupRoutes_ViewRejectsCrossOrigin(t *testing.T) {
	srv := httptest.NewServer(newRouter(t, ""))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/view"

	header := http.Header{"Origin": {"https://evil.example"}}
	conn, resp, err := gorilla.DefaultDialer.Dial(url, header)
	if err == nil {
		conn.Close()
		t.Fatal("cross-origin viewer was accepted")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("cross-origin response = %v, want 403", resp)
	}

	for _, header := range []http.Header{nil, {"Origin": {srv.URL}}} {
		conn, _, err := gorilla.DefaultDialer.Dial(url, header)
		if err != nil {
			t.Fatalf("same-origin dial with %v: %v", header, err)
		}
		conn.Close()
	}
}

func TestSetupRoutes_PasswordProtected(t *testing.T) {
	h := newRouter(t, "secret")

	if rec := get(h, "/api/detection/state"); rec.Code != http.StatusUnauthorized {
		t.Errorf("api status = %d, want 401", rec.Code)
	}
	if rec := get(h, "/"); rec.Code != http.StatusSeeOther {
		t.Errorf("page status = %d, want redirect", rec.Code)
	}
}
