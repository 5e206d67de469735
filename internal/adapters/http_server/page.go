package httpserver

import (
	"bytes"
	"embed"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"city_tourism/internal/domain"
)

const (
	pageRankingLimit = 100
	pageSize         = 25
)

//go:embed templates/ranking.html
var templatesFS embed.FS

var rankingTmpl = template.Must(template.ParseFS(templatesFS, "templates/ranking.html"))

var numbers = message.NewPrinter(language.English)

type pageRow struct {
	Rank        int
	URI         string
	Label       string
	EnglishName string
	Visitors    string
	Attractions int
	Lat, Lon    string
	LogoURL     string
}

type pageView struct {
	Page             int
	Rows             []pageRow
	HasPrev, HasNext bool
	Prev, Next       int
}

// pointOf parses a WKT point literal such as "Point(30.52 50.45)".
func pointOf(literal string) (lat, lon string) {
	p, err := wkt.UnmarshalPoint(strings.ToUpper(strings.TrimSpace(literal)))
	if err != nil {
		return "", ""
	}
	return strconv.FormatFloat(p.Lat(), 'f', 4, 64), strconv.FormatFloat(p.Lon(), 'f', 4, 64)
}

func formatVisitors(v float64) string {
	return numbers.Sprintf("%d", int64(math.Round(v)))
}

func buildPage(page int, cities []domain.City) pageView {
	v := pageView{Page: page, Prev: page - 1, Next: page + 1, HasPrev: page > 0}
	// compare before multiplying; page comes straight from the URL
	if page >= (len(cities)+pageSize-1)/pageSize {
		return v
	}
	start := page * pageSize
	end := min(start+pageSize, len(cities))
	v.HasNext = end < len(cities)

	for i, c := range cities[start:end] {
		lat, lon := pointOf(c.Coordinates)
		v.Rows = append(v.Rows, pageRow{
			Rank:        start + i + 1,
			URI:         c.URI,
			Label:       c.Label,
			EnglishName: c.EnglishName,
			Visitors:    formatVisitors(c.TotalVisitors),
			Attractions: c.AttractionCount,
			Lat:         lat,
			Lon:         lon,
			LogoURL:     c.LogoURL,
		})
	}
	return v
}

func (h *Handlers) rankingPage(w http.ResponseWriter, r *http.Request) {
	page := 0
	if ps := chi.URLParam(r, "page"); ps != "" {
		p, err := strconv.Atoi(ps)
		if err != nil || p < 0 {
			http.Error(w, "page must be a non-negative integer", http.StatusBadRequest)
			return
		}
		page = p
	}

	cities, err := h.Q.GetCityRanking(r.Context(), pageRankingLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	// render into a buffer so a template failure can still become a 500
	var buf bytes.Buffer
	if err := rankingTmpl.Execute(&buf, buildPage(page, cities)); err != nil {
		log.Error().Err(err).Int("page", page).Msg("render ranking page failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write response body")
	}
}
