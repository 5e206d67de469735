package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"city_tourism/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/api/tourism/city-ranking", "GET", 200, 12*time.Millisecond)
	observability.ObserveExternal("wikidata", 200, 800*time.Millisecond)
	observability.ObserveCache("memory", "miss")
	observability.ObserveEnrichment(true)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{
		"tourism_http_requests_total",
		"tourism_external_requests_total",
		"tourism_cache_events_total",
		`tourism_image_enrichment_total{result="found"}`,
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}
