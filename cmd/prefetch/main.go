package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"city_tourism/internal/adapters/observability"
	redisad "city_tourism/internal/adapters/redis"
	"city_tourism/internal/adapters/wikidata"
	"city_tourism/internal/adapters/wikipedia"
	"city_tourism/internal/app"
	"city_tourism/internal/shared"
)

// prefetch fills the shared redis cache for the configured ranking limits and
// city names so the API starts warm.
func main() {
	_ = godotenv.Load()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if cfg.CacheBackend != "redis" {
		log.Fatal().Str("backend", cfg.CacheBackend).Msg("prefetch needs CACHE_BACKEND=redis; the memory cache dies with the process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("endpoint", cfg.SPARQLEndpoint).
		Ints("limits", cfg.PrefetchLimits).
		Strs("cities", cfg.PrefetchCities).
		Int("workers", cfg.PrefetchWorkers).
		Msg("prefetch starting")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}
	log.Info().Msg("redis ping ok")

	graph, err := wikidata.New(cfg.SPARQLEndpoint, cfg.UserAgent, cfg.OutboundTimeout, cfg.OutboundRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize SPARQL client")
	}
	images := wikipedia.New(cfg.SummaryAPIBase, cfg.UserAgent, cfg.OutboundTimeout, cfg.OutboundRPS)

	q := app.NewRankingService(graph, images, cache,
		app.WithCacheTTL(cfg.CacheTTL),
		app.WithEnrichWorkers(cfg.EnrichWorkers),
		app.WithFetchTimeout(3*cfg.OutboundTimeout),
		app.WithQueryBuilder(app.QueryBuilder{Country: cfg.CountryQID, Languages: cfg.LabelLanguages}),
	)
	refresh := app.NewRefreshService(q, cache)

	workers := cfg.PrefetchWorkers
	if workers <= 0 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	var failed atomic.Int32
	start := time.Now()

	// one failed job must not stop the others, so jobs never return an error
	for _, limit := range cfg.PrefetchLimits {
		limit := limit // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			n, err := refresh.RefreshRanking(ctx, limit)
			if err != nil {
				failed.Add(1)
				log.Warn().Int("limit", limit).Err(err).Msg("prefetch ranking failed")
				return nil
			}
			log.Info().Int("limit", limit).Int("cities", n).Msg("prefetch ranking ok")
			return nil
		})
	}
	for _, name := range cfg.PrefetchCities {
		name := name // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			found, err := refresh.RefreshCity(ctx, name)
			switch {
			case err != nil:
				failed.Add(1)
				log.Warn().Str("name", name).Err(err).Msg("prefetch city failed")
			case !found:
				log.Warn().Str("name", name).Msg("prefetch city not found")
			default:
				log.Info().Str("name", name).Msg("prefetch city ok")
			}
			return nil
		})
	}
	_ = g.Wait()

	jobs := len(cfg.PrefetchLimits) + len(cfg.PrefetchCities)
	log.Info().Int("jobs", jobs).Int32("failed", failed.Load()).Dur("took", time.Since(start)).Msg("prefetch completed")
	if failed.Load() > 0 {
		fmt.Fprintf(os.Stderr, "prefetch: %d of %d jobs failed\n", failed.Load(), jobs)
		os.Exit(1)
	}
}
