package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	s := New(Options{CORSOrigins: []string{"https://maps.example"}})
	s.MountHandlers(&Handlers{Q: &fakeRanking{}})

	rec := do(t, s.Mux(), "/api/tourism/city-ranking", "Origin", "https://maps.example")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://maps.example" {
		t.Fatalf("expected allowed origin, got %q", got)
	}

	rec = do(t, s.Mux(), "/api/tourism/city-ranking", "Origin", "https://evil.example")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin for foreign origin: %q", got)
	}
}

func TestCORS_DisabledByDefault(t *testing.T) {
	rec := do(t, newTestServer(&fakeRanking{}), "/healthz", "Origin", "https://maps.example")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("CORS headers without configured origins: %q", got)
	}
}

func TestTimeout(t *testing.T) {
	h := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRecoverer(t *testing.T) {
	s := New(Options{})
	s.Mux().(*chi.Mux).Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := do(t, s.Mux(), "/panic")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRouteOf(t *testing.T) {
	m := chi.NewRouter()
	var seen string
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			seen = routeOf(r)
		})
	})
	m.Get("/city/{page}", func(http.ResponseWriter, *http.Request) {})

	m.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/city/3", nil))
	if seen != "/city/{page}" {
		t.Fatalf("expected route pattern, got %q", seen)
	}
	m.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	if seen != "unmatched" {
		t.Fatalf("expected unmatched, got %q", seen)
	}
}

func TestRemoteIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := remoteIP(r); got != "10.0.0.1" {
		t.Fatalf("got %q", got)
	}
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	if got := remoteIP(r); got != "1.2.3.4" {
		t.Fatalf("got %q", got)
	}
}
