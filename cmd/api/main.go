package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	server "city_tourism/internal/adapters/http_server"
	"city_tourism/internal/adapters/memcache"
	"city_tourism/internal/adapters/observability"
	redisad "city_tourism/internal/adapters/redis"
	"city_tourism/internal/adapters/wikidata"
	"city_tourism/internal/adapters/wikipedia"
	"city_tourism/internal/app"
	"city_tourism/internal/domain"
	"city_tourism/internal/shared"
)

func main() {
	// a missing .env is fine; the process environment still applies
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// deps
	cache := newCache(ctx, cfg)
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

	if cfg.WarmupLimit > 0 {
		go q.WarmUp(ctx, cfg.WarmupLimit)
	}

	// http
	srv := server.New(server.Options{
		// SPARQL fetch plus one enrichment round, with headroom
		RequestTimeout: 3 * cfg.OutboundTimeout,
		CORSOrigins:    cfg.CORSOrigins,
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("cache", cfg.CacheBackend).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

func newCache(ctx context.Context, cfg shared.Config) domain.Cache {
	if cfg.CacheBackend != "redis" {
		return memcache.New(10 * time.Minute)
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	// cache failures degrade to misses, so an unreachable redis is not fatal
	if err := c.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	} else {
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis connection ok")
	}
	return c
}
