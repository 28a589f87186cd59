package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"streamscout/internal/media"
	"streamscout/internal/provider"
)

type fakeProvider struct {
	name   string
	result media.ExtractionResult
	mu     sync.Mutex
	last   provider.Request
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Streams(_ context.Context, req provider.Request) media.ExtractionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = req
	f.calls++
	return f.result
}

type panicProvider struct{}

func (panicProvider) Name() string { return "broken" }

func (panicProvider) Streams(context.Context, provider.Request) media.ExtractionResult {
	panic("provider exploded")
}

type fakeDirect struct{ got string }

func (f *fakeDirect) DirectSources(_ context.Context, u string) []media.SourceRecord {
	f.got = u
	return []media.SourceRecord{{URL: "https://cdn.example/v.mp4", Label: "Auto", Type: media.MP4}}
}

type fakeRecorder struct{ entries []media.HistoryEntry }

func (f *fakeRecorder) Record(_ context.Context, e media.HistoryEntry) (int64, error) {
	f.entries = append(f.entries, e)
	return int64(len(f.entries)), nil
}

func fourSources() media.ExtractionResult {
	return media.NewResult([]media.SourceRecord{
		{URL: "https://c/1.m3u8", Label: "1080p", Type: media.M3U8},
		{URL: "https://c/2.m3u8", Label: "720p", Type: media.M3U8},
		{URL: "https://c/3.mp4", Label: "Auto", Type: media.MP4},
		{URL: "https://c/4.mp4", Label: "Auto", Type: media.MP4},
	}, []media.SubtitleRecord{{URL: "https://s/en.vtt", Label: "English"}})
}

func newTestServer(t *testing.T, opts Options, providers ...provider.Provider) *Server {
	t.Helper()
	reg, err := provider.NewRegistry(providers...)
	if err != nil {
		t.Fatal(err)
	}
	opts.Logger = zerolog.Nop()
	return New(reg, opts)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{}, &fakeProvider{name: "vidsrc"}, &fakeProvider{name: "alpha"})

	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body healthResponse
	decode(t, rec, &body)
	if body.Status != "working" {
		t.Errorf("status = %q, want working", body.Status)
	}
	if len(body.Providers) != 2 || body.Providers[0] != "alpha" || body.Providers[1] != "vidsrc" {
		t.Errorf("providers = %v", body.Providers)
	}
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	s := newTestServer(t, Options{}, &fakeProvider{name: "vidsrc"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestRequestIDRejectsUnsafeValues(t *testing.T) {
	s := newTestServer(t, Options{}, &fakeProvider{name: "vidsrc"})

	tests := []struct {
		name string
		id   string
	}{
		{"too long", strings.Repeat("a", maxRequestIDLen+1)},
		{"control character", "abc\x1b[31m"},
		{"embedded space", "abc 123"},
		{"invalid utf-8", "abc\xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header[HeaderRequestID] = []string{tt.id}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderRequestID)
			if got == tt.id {
				t.Fatalf("unsafe request ID %q was echoed", tt.id)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("X-Request-ID = %q, want a generated UUID", got)
			}
		})
	}
}

func TestStreamsRoute(t *testing.T) {
	p := &fakeProvider{name: "vidsrc", result: fourSources()}
	s := newTestServer(t, Options{}, p)

	rec := get(t, s, "/vidsrc/tv/1399?season=1&episode=2&subtitles=false")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body media.ExtractionResult
	decode(t, rec, &body)
	if len(body.Sources) != 4 || body.Error != nil {
		t.Errorf("got %+v", body)
	}

	if p.last.MediaType != media.TV || p.last.ID != "1399" {
		t.Errorf("request = %+v", p.last)
	}
	if p.last.Season == nil || *p.last.Season != 1 || p.last.Episode == nil || *p.last.Episode != 2 {
		t.Errorf("season/episode not forwarded: %+v", p.last)
	}
	if p.last.Subtitles {
		t.Error("subtitles=false not forwarded")
	}
	if p.last.Server != provider.DefaultServer {
		t.Errorf("server = %q, want default", p.last.Server)
	}
}

func TestStreamsRouteErrors(t *testing.T) {
	s := newTestServer(t, Options{}, &fakeProvider{name: "vidsrc"})

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown provider", "/nope/movie/1", http.StatusNotFound},
		{"bad media type", "/vidsrc/podcast/1", http.StatusBadRequest},
		{"bad season", "/vidsrc/tv/1?season=one", http.StatusBadRequest},
		{"negative episode", "/vidsrc/tv/1?season=1&episode=-2", http.StatusBadRequest},
		{"bad id", "/vidsrc/movie/a%20b", http.StatusBadRequest},
		{"bad flag", "/vidsrc/movie/1?sources=maybe", http.StatusBadRequest},
		{"unrouted", "/a/b/c/d", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			var body errorResponse
			decode(t, rec, &body)
			if body.Error == "" {
				t.Error("error body missing")
			}
		})
	}
}

func TestTestRouteDebugBlock(t *testing.T) {
	p := &fakeProvider{name: "vidsrc", result: fourSources()}
	s := newTestServer(t, Options{}, p)

	rec := get(t, s, "/test/movie/550")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Sources   []media.SourceRecord   `json:"sources"`
		Subtitles []media.SubtitleRecord `json:"subtitles"`
		Error     *string                `json:"error"`
		Debug     debugInfo              `json:"debug"`
	}
	decode(t, rec, &body)

	if len(body.Sources) != 4 || len(body.Subtitles) != 1 {
		t.Errorf("got %d sources, %d subtitles", len(body.Sources), len(body.Subtitles))
	}
	if body.Debug.Endpoint != "/vidsrc/movie/550" {
		t.Errorf("endpoint = %q", body.Debug.Endpoint)
	}
	if len(body.Debug.DirectSources) != 3 {
		t.Errorf("direct_sources has %d items, want first 3", len(body.Debug.DirectSources))
	}
	if body.Debug.SourceCount != 4 || body.Debug.HasError {
		t.Errorf("debug = %+v", body.Debug)
	}
}

func TestTestRoutePlayerNotFound(t *testing.T) {
	p := &fakeProvider{name: "vidsrc", result: media.FailedResult(provider.PlayerNotFound)}
	s := newTestServer(t, Options{}, p)

	rec := get(t, s, "/test/movie/1")
	var body struct {
		Sources []media.SourceRecord `json:"sources"`
		Error   *string              `json:"error"`
		Debug   debugInfo            `json:"debug"`
	}
	decode(t, rec, &body)

	if body.Error == nil || *body.Error != "Player not found" {
		t.Errorf("error = %v, want Player not found", body.Error)
	}
	if body.Sources == nil || len(body.Sources) != 0 {
		t.Errorf("sources = %#v, want []", body.Sources)
	}
	if !body.Debug.HasError || body.Debug.DirectSources == nil {
		t.Errorf("debug = %+v", body.Debug)
	}
}

func TestDirectRoute(t *testing.T) {
	d := &fakeDirect{}
	s := newTestServer(t, Options{Direct: d}, &fakeProvider{name: "vidsrc"})

	rec := get(t, s, "/direct?url=https%3A%2F%2Fsite.com%2Fembed%2F1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if d.got != "https://site.com/embed/1" {
		t.Errorf("resolver got %q", d.got)
	}
	var body directResponse
	decode(t, rec, &body)
	if len(body.Sources) != 1 {
		t.Errorf("got %d sources", len(body.Sources))
	}

	if rec := get(t, s, "/direct?url=javascript:alert(1)"); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid url status = %d, want 400", rec.Code)
	}
}

func TestDirectRouteDisabled(t *testing.T) {
	s := newTestServer(t, Options{}, &fakeProvider{name: "vidsrc"})
	if rec := get(t, s, "/direct?url=https://site.com/"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHistoryRecorded(t *testing.T) {
	recorder := &fakeRecorder{}
	p := &fakeProvider{name: "vidsrc", result: fourSources()}
	s := newTestServer(t, Options{History: recorder}, p)

	get(t, s, "/vidsrc/tv/1399?season=2&episode=3")

	if len(recorder.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(recorder.entries))
	}
	e := recorder.entries[0]
	if e.Provider != "vidsrc" || e.MediaID != "1399" || e.Season != 2 || e.Episode != 3 || e.SourceCount != 4 {
		t.Errorf("entry = %+v", e)
	}
}

func TestRecovererReturnsJSON(t *testing.T) {
	s := newTestServer(t, Options{}, panicProvider{})

	rec := get(t, s, "/broken/movie/1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["error"] == "" || body["request_id"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: 2}, &fakeProvider{name: "vidsrc"})

	for i := 0; i < 2; i++ {
		if rec := get(t, s, "/health"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := get(t, s, "/health")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Options{}, &fakeProvider{name: "vidsrc"})

	req := httptest.NewRequest(http.MethodOptions, "/vidsrc/movie/1", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}
