package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	CORSOrigins []string

	CacheBackend string // memory|redis
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	CacheTTL     time.Duration

	SPARQLEndpoint  string
	SummaryAPIBase  string
	UserAgent       string
	CountryQID      string
	LabelLanguages  string
	OutboundTimeout time.Duration
	OutboundRPS     int
	EnrichWorkers   int
	WarmupLimit     int

	PrefetchLimits  []int
	PrefetchCities  []string
	PrefetchWorkers int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer env value")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		CORSOrigins: list(env("CORS_ORIGINS", "")),

		CacheBackend: strings.ToLower(env("CACHE_BACKEND", "memory")),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		RedisPass:    env("REDIS_PASSWORD", ""),
		RedisDB:      atoi("REDIS_DB", 0),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 6*60*60)) * time.Second,

		SPARQLEndpoint:  env("SPARQL_ENDPOINT", "https://query.wikidata.org/sparql"),
		SummaryAPIBase:  env("SUMMARY_API_BASE", "https://en.wikipedia.org/api/rest_v1/page/summary"),
		UserAgent:       env("USER_AGENT", "city-tourism/1.0 (+https://github.com/city-tourism)"),
		CountryQID:      env("COUNTRY_QID", "Q212"),
		LabelLanguages:  env("LABEL_LANGUAGES", "uk,en"),
		OutboundTimeout: time.Duration(atoi("OUTBOUND_TIMEOUT_SECONDS", 20)) * time.Second,
		OutboundRPS:     atoi("OUTBOUND_RPS", 5),
		EnrichWorkers:   atoi("ENRICH_WORKERS", 5),
		WarmupLimit:     atoi("WARMUP_LIMIT", 100),

		PrefetchLimits:  ints(env("PREFETCH_LIMITS", "10,50,100")),
		PrefetchCities:  list(env("PREFETCH_CITIES", "")),
		PrefetchWorkers: atoi("PREFETCH_WORKERS", 4),
	}
	if c.CacheBackend != "memory" && c.CacheBackend != "redis" {
		log.Warn().Str("backend", c.CacheBackend).Msg("unknown CACHE_BACKEND, using memory")
		c.CacheBackend = "memory"
	}
	if c.EnrichWorkers <= 0 {
		c.EnrichWorkers = 1
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// list splits a comma separated value, dropping blanks.
func list(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func ints(s string) []int {
	var out []int
	for _, p := range list(s) {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}
