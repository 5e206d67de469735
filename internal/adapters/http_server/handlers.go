// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"city_tourism/internal/domain"
)

const defaultRankingLimit = 100

// Ranking is the core the handlers delegate to; *app.RankingService satisfies it.
type Ranking interface {
	GetCityRanking(ctx context.Context, limit int) ([]domain.City, error)
	GetCityByName(ctx context.Context, name string) (domain.City, bool, error)
}

type Handlers struct{ Q Ranking }

type problem struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Status         int    `json:"status"`
	Detail         string `json:"detail,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	Details        string `json:"details,omitempty"` // upstream response body
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/api/tourism/city-ranking", h.cityRanking)
	s.mux.Get("/api/tourism/city", h.cityByName)
	s.mux.Get("/", h.root)
	s.mux.Get("/city", h.rankingPage)
	s.mux.Get("/city/{page}", h.rankingPage)
}

func writeProblem(w http.ResponseWriter, p problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps core errors to problem responses.
func writeError(w http.ResponseWriter, err error) {
	var re *domain.RetrievalError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, problem{Title: "Bad Request", Status: http.StatusBadRequest, Detail: err.Error()})
	case errors.As(err, &re):
		writeProblem(w, problem{
			Title:          "Upstream query failed",
			Status:         http.StatusBadGateway,
			Detail:         "the knowledge graph endpoint did not answer successfully",
			UpstreamStatus: re.Status,
			Details:        re.Error(),
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, problem{Title: "Gateway Timeout", Status: http.StatusGatewayTimeout, Detail: err.Error()})
	default:
		log.Error().Err(err).Msg("unexpected handler error")
		writeProblem(w, problem{Title: "Internal Server Error", Status: http.StatusInternalServerError})
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// etagMatches applies the weak comparison of If-None-Match: any listed tag
// equal to etag, ignoring the W/ prefix, or "*".
func etagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == want {
			return true
		}
	}
	return false
}

// writeJSON writes v with a weak ETag and answers 304 when the client already has it.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, problem{Title: "Internal Server Error", Status: http.StatusInternalServerError})
		return
	}
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write response body")
	}
}

func (h *Handlers) cityRanking(w http.ResponseWriter, r *http.Request) {
	limit := defaultRankingLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil {
			writeProblem(w, problem{Title: "Invalid limit", Status: http.StatusBadRequest, Detail: "limit must be an integer"})
			return
		}
		limit = l
	}

	cities, err := h.Q.GetCityRanking(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if cities == nil {
		cities = []domain.City{}
	}
	writeJSON(w, r, cities)
}

func (h *Handlers) cityByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeProblem(w, problem{Title: "Bad Request", Status: http.StatusBadRequest, Detail: "City name is required."})
		return
	}

	city, ok, err := h.Q.GetCityByName(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeProblem(w, problem{
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: fmt.Sprintf("No city found with name '%s'.", strings.TrimSpace(name)),
		})
		return
	}
	writeJSON(w, r, city)
}

func (h *Handlers) root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/city/0", http.StatusFound)
}
