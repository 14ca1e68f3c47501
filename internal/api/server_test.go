package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/sextet-lights/internal/audit"
	"github.com/nerrad567/sextet-lights/internal/bridge"
	"github.com/nerrad567/sextet-lights/internal/controller"
	"github.com/nerrad567/sextet-lights/internal/infrastructure/config"
	"github.com/nerrad567/sextet-lights/internal/infrastructure/logging"
	"github.com/nerrad567/sextet-lights/internal/sextet"
)

type fakeStats struct {
	stats bridge.Stats
}

func (f fakeStats) Stats() bridge.Stats { return f.stats }

type fakeJournal struct {
	mu      sync.Mutex
	entries []audit.Entry
	filter  audit.Filter
	err     error
}

func (f *fakeJournal) Create(_ context.Context, entry *audit.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeJournal) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return &audit.ListResult{
		Entries: f.entries,
		Total:   len(f.entries),
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func testLogger() *logging.Logger {
	return logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		MaxMessageSize: 8192,
		PingInterval:   30,
		PongTimeout:    10,
	}
}

// testServer creates a Server with a running hub and serves its router.
func testServer(t *testing.T, journal audit.Repository) (*Server, *httptest.Server) {
	t.Helper()

	log := testLogger()
	hub := NewHub(testWSConfig(), log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1", WebSocket: testWSConfig()},
		Logger: log,
		Stats: fakeStats{stats: bridge.Stats{
			Frames:       12,
			Transitions:  30,
			PartialBytes: 2,
			Sessions: map[string]controller.SessionStats{
				"right": {Sent: 4, Dropped: 1, Lights: 20, State: controller.StateDisconnected},
				"left":  {Sent: 26, Lights: 50, State: controller.StateConnected},
			},
		}},
		Journal:     journal,
		ExternalHub: hub,
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return srv, ts
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec,noctx // test URL
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{Stats: fakeStats{}}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: testLogger()}); err == nil {
		t.Error("New() without stats source should fail")
	}
}

func TestHandleHealth(t *testing.T) {
	_, ts := testServer(t, nil)

	var body map[string]any
	resp := getJSON(t, ts.URL+"/api/v1/health", &body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestRequestID_ClientSupplied(t *testing.T) {
	_, ts := testServer(t, nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL+"/api/v1/health", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Request-ID", "cabinet-42")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "cabinet-42" {
		t.Errorf("X-Request-ID = %q, want cabinet-42", got)
	}
}

func TestHandleStats(t *testing.T) {
	_, ts := testServer(t, nil)

	var body statsResponse
	getJSON(t, ts.URL+"/api/v1/stats", &body)

	if body.Frames != 12 || body.Transitions != 30 || body.PartialBytes != 2 {
		t.Errorf("counters = %+v", body)
	}
	if len(body.Controllers) != 2 {
		t.Fatalf("controllers = %d, want 2", len(body.Controllers))
	}
	left, right := body.Controllers[0], body.Controllers[1]
	if left.Name != "left" || right.Name != "right" {
		t.Errorf("controllers not sorted by name: %q, %q", left.Name, right.Name)
	}
	if left.State != "connected" || right.State != "disconnected" {
		t.Errorf("states = %q, %q", left.State, right.State)
	}
	if right.Sent != 4 || right.Dropped != 1 || right.Lights != 20 {
		t.Errorf("right = %+v", right)
	}
}

func TestHandleLights(t *testing.T) {
	_, ts := testServer(t, nil)

	var body struct {
		Lights    []lightInfo `json:"lights"`
		Count     int         `json:"count"`
		MainLight string      `json:"main_light"`
	}
	getJSON(t, ts.URL+"/api/v1/lights", &body)

	if body.Count != sextet.LightCount() || len(body.Lights) != body.Count {
		t.Errorf("count = %d, lights = %d, want %d", body.Count, len(body.Lights), sextet.LightCount())
	}
	if body.MainLight != sextet.MainLight {
		t.Errorf("main_light = %q", body.MainLight)
	}
	first := body.Lights[0]
	if first.Name != "marquee_upper_left" || first.ByteIndex != 0 || first.Mask != "0x1" {
		t.Errorf("first light = %+v", first)
	}
}

func TestHandleListEvents(t *testing.T) {
	journal := &fakeJournal{entries: []audit.Entry{
		{ID: "evt-1", Controller: "left", Kind: "connect_failed", Error: "refused", RetryIn: 5 * time.Second},
	}}
	_, ts := testServer(t, journal)

	var body audit.ListResult
	resp := getJSON(t, ts.URL+"/api/v1/events?controller=left&kind=connect_failed&limit=5&offset=0", &body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	want := audit.Filter{Controller: "left", Kind: "connect_failed", Limit: 5}
	journal.mu.Lock()
	got := journal.filter
	journal.mu.Unlock()
	if got != want {
		t.Errorf("filter = %+v, want %+v", got, want)
	}
	if body.Total != 1 || body.Entries[0].Error != "refused" {
		t.Errorf("body = %+v", body)
	}
}

func TestHandleListEvents_Errors(t *testing.T) {
	tests := []struct {
		name    string
		journal audit.Repository
		query   string
		status  int
		code    string
	}{
		{name: "journal disabled", journal: nil, status: http.StatusNotFound, code: ErrCodeNotFound},
		{name: "bad limit", journal: &fakeJournal{}, query: "?limit=ten", status: http.StatusBadRequest, code: ErrCodeBadRequest},
		{name: "negative offset", journal: &fakeJournal{}, query: "?offset=-1", status: http.StatusBadRequest, code: ErrCodeBadRequest},
		{name: "repository failure", journal: &fakeJournal{err: errors.New("disk full")}, status: http.StatusInternalServerError, code: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := testServer(t, tt.journal)

			var body Error
			resp := getJSON(t, ts.URL+"/api/v1/events"+tt.query, &body)

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	_, ts := testServer(t, nil)

	var body Error
	resp := getJSON(t, ts.URL+"/api/v1/devices", &body)
	if resp.StatusCode != http.StatusNotFound || body.Code != ErrCodeNotFound {
		t.Errorf("unknown route: status = %d, code = %q", resp.StatusCode, body.Code)
	}

	resp, err := http.Post(ts.URL+"/api/v1/stats", "application/json", strings.NewReader("{}")) //nolint:noctx // test
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /stats status = %d, want 405", resp.StatusCode)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	srv, err := New(Deps{Logger: testLogger(), Stats: fakeStats{}})
	if err != nil {
		t.Fatal(err)
	}
	h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestServer_StartAndClose(t *testing.T) {
	srv, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1", Port: 0, WebSocket: testWSConfig()},
		Logger: testLogger(),
		Stats:  fakeStats{},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}
	if srv.Hub() == nil {
		t.Error("Start() should create a hub")
	}
	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}

	var body map[string]any
	resp := getJSON(t, "http://"+srv.Addr()+"/api/v1/health", &body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}
