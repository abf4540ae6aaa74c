package dev

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vango-dev/fsroute/internal/config"
	"github.com/vango-dev/fsroute/pkg/manifest"
	"github.com/vango-dev/fsroute/pkg/module"
)

func newTestServer(t *testing.T, modules module.Loader) http.Handler {
	t.Helper()
	routesDir := t.TempDir()
	writeFiles(t, routesDir, "index.tsx", "blog/[slug].tsx", "api/health+api.go")

	cfg := config.New()
	cfg.RoutesDir = routesDir

	s, err := NewServer(ServerOptions{Config: cfg, Modules: modules})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if _, err := s.reloader.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	h, err := s.Handler()
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	return h
}

func TestServer_Match(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MatchPath+"?path=/blog/hello", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var report MatchReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Route != "/blog/[slug]" || report.File != "blog/[slug].tsx" {
		t.Errorf("report = %+v", report)
	}
	if report.Params["slug"] != "hello" {
		t.Errorf("Params = %v", report.Params)
	}
	if report.Generation != 1 {
		t.Errorf("Generation = %d, want 1", report.Generation)
	}
}

func TestServer_MatchErrors(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		query string
		code  int
	}{
		{"?path=/nope/deeper/still", http.StatusNotFound},
		{"?path=/a%252Fb", http.StatusBadRequest},
		{"?path=/&target=everything", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MatchPath+tt.query, nil))
		if rec.Code != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.query, rec.Code, tt.code)
		}
	}
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, RoutesPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	m, err := manifest.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(m.PageRoutes) != 2 || len(m.APIRoutes) != 1 {
		t.Errorf("routes = %d pages, %d api", len(m.PageRoutes), len(m.APIRoutes))
	}
}

func TestServer_Metrics(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "fsroute_rebuilds_total") {
		t.Errorf("metrics missing rebuild counter:\n%s", body)
	}
}

func TestServer_DispatchesModules(t *testing.T) {
	reg := module.NewRegistry()
	reg.Register("api/health+api.go", func() *module.Module {
		return &module.Module{Handlers: map[string]http.Handler{
			http.MethodGet: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "ok")
			}),
		}}
	})
	loader, err := module.NewCachedLoader(reg, 16)
	if err != nil {
		t.Fatal(err)
	}
	h := newTestServer(t, loader)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("GET /api/health = %d %q", rec.Code, rec.Body.String())
	}
}
