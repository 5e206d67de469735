package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"city_tourism/internal/domain"
)

const (
	cacheNamespace       = "tourism"
	defaultCacheTTL      = 6 * time.Hour
	defaultEnrichWorkers = 5
	defaultMaxLimit      = 1000
	defaultFetchTimeout  = time.Minute
)

type RankingService struct {
	graph    domain.GraphClient
	images   domain.ImageFinder
	cache    domain.Cache
	builder  QueryBuilder
	cacheTTL time.Duration
	workers  int64
	maxLimit int

	// fetchTimeout bounds one shared upstream load, independent of any caller
	fetchTimeout time.Duration

	flight   singleflight.Group
	warmOnce sync.Once
}

type Option func(*RankingService)

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *RankingService) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithEnrichWorkers bounds concurrent image lookups per fetched result set.
func WithEnrichWorkers(n int) Option {
	return func(s *RankingService) {
		if n > 0 {
			s.workers = int64(n)
		}
	}
}

func WithQueryBuilder(b QueryBuilder) Option {
	return func(s *RankingService) { s.builder = b }
}

func WithMaxLimit(n int) Option {
	return func(s *RankingService) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithFetchTimeout bounds a shared fetch-and-enrich run. Callers that give up
// earlier do not cut it short.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *RankingService) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

func NewRankingService(g domain.GraphClient, img domain.ImageFinder, c domain.Cache, opts ...Option) *RankingService {
	s := &RankingService{
		graph:    g,
		images:   img,
		cache:    c,
		builder:  DefaultQueryBuilder(),
		cacheTTL: defaultCacheTTL,
		workers:  defaultEnrichWorkers,
		maxLimit: defaultMaxLimit,

		fetchTimeout: defaultFetchTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func rankingKey(limit int) string {
	return fmt.Sprintf("%s:ranking:%d", cacheNamespace, limit)
}

func cityKey(name string) string {
	return fmt.Sprintf("%s:city:%s", cacheNamespace, strings.ToLower(name))
}

// GetCityRanking returns the top limit cities by summed attraction visitors.
// Concurrent misses on the same limit share one upstream fetch.
func (s *RankingService) GetCityRanking(ctx context.Context, limit int) ([]domain.City, error) {
	if err := s.validateLimit(limit); err != nil {
		return nil, err
	}

	key := rankingKey(limit)
	var cached []domain.City
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	return s.loadRanking(ctx, limit)
}

// loadRanking fetches, enriches and caches the ranking for limit, skipping the cache read.
func (s *RankingService) loadRanking(ctx context.Context, limit int) ([]domain.City, error) {
	key := rankingKey(limit)
	v, err := s.shared(ctx, key, func(fctx context.Context) (any, error) {
		cities, err := s.fetch(fctx, s.builder.BuildRankingQuery(limit))
		if err != nil {
			return nil, err
		}
		s.enrich(fctx, cities)
		if err := fctx.Err(); err != nil {
			// don't cache a result whose enrichment was cut short
			return nil, err
		}
		s.cacheSet(fctx, key, cities)
		return cities, nil
	})
	if err != nil {
		return nil, err
	}
	// callers sharing a flight must not share a backing array
	return append([]domain.City{}, v.([]domain.City)...), nil
}

// GetCityByName looks a city up by its exact English label. The cache key is
// case-folded; unknown names are never cached.
func (s *RankingService) GetCityByName(ctx context.Context, name string) (domain.City, bool, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return domain.City{}, false, err
	}

	key := cityKey(name)
	var cached domain.City
	if s.cacheGet(ctx, key, &cached) {
		return cached, true, nil
	}

	return s.loadCity(ctx, name)
}

// loadCity fetches, enriches and (when found) caches one city, skipping the cache read.
func (s *RankingService) loadCity(ctx context.Context, name string) (domain.City, bool, error) {
	key := cityKey(name)
	v, err := s.shared(ctx, key, func(fctx context.Context) (any, error) {
		cities, err := s.fetch(fctx, s.builder.BuildLookupQuery(name))
		if err != nil {
			return nil, err
		}
		if len(cities) == 0 {
			return nil, nil
		}
		found := cities[:1]
		s.enrich(fctx, found)
		if err := fctx.Err(); err != nil {
			return nil, err
		}
		s.cacheSet(fctx, key, found[0])
		return found[0], nil
	})
	if err != nil {
		return domain.City{}, false, err
	}
	city, ok := v.(domain.City)
	return city, ok, nil
}

// shared runs load once per key for all concurrent callers. The load gets its
// own deadline and outlives any single caller; each caller stops waiting when
// its own ctx is done.
func (s *RankingService) shared(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := s.flight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return load(fctx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WarmUp loads the ranking for limit into the cache once per service.
// Failures are logged and dropped.
func (s *RankingService) WarmUp(ctx context.Context, limit int) {
	s.warmOnce.Do(func() {
		start := time.Now()
		cities, err := s.GetCityRanking(ctx, limit)
		if err != nil {
			log.Warn().Err(err).Int("limit", limit).Msg("cache warm-up failed")
			return
		}
		log.Info().Int("limit", limit).Int("cities", len(cities)).Dur("took", time.Since(start)).Msg("cache warm-up done")
	})
}

func (s *RankingService) validateLimit(limit int) error {
	if limit < 1 || limit > s.maxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidInput, s.maxLimit)
	}
	return nil
}

// validateName rejects names that are blank or could escape the SPARQL string literal.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: city name is required", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(name, `"\`) || strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: city name contains forbidden characters", domain.ErrInvalidInput)
	}
	return nil
}

func (s *RankingService) fetch(ctx context.Context, query string) ([]domain.City, error) {
	body, err := s.graph.Select(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrRetrieval) {
			return nil, err
		}
		return nil, &domain.RetrievalError{Err: err}
	}
	cities, err := parseCities(body)
	if err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}
	return cities, nil
}

// enrich fills missing logos from the image finder, at most once per record
// and with bounded concurrency. Each goroutine owns exactly one index.
func (s *RankingService) enrich(ctx context.Context, cities []domain.City) {
	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup

	for i := range cities {
		if !cities[i].NeedsLogo() {
			continue
		}
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("city", cities[i].EnglishName).Msg("image lookup panicked")
				}
			}()

			if url, ok := s.images.FindImage(ctx, cities[i].EnglishName); ok {
				cities[i].LogoURL = url
			}
		}(i)
	}
	wg.Wait()
}

func (s *RankingService) cacheGet(ctx context.Context, key string, dst any) bool {
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed; treating as miss")
		return false
	}
	return ok
}

func (s *RankingService) cacheSet(ctx context.Context, key string, v any) {
	if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
