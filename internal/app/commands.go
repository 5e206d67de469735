package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"city_tourism/internal/domain"
)

// RefreshService re-fetches cache entries ahead of demand. It backs the
// prefetch job; the API itself only fills the cache on misses.
type RefreshService struct {
	q     *RankingService
	cache domain.Cache
}

func NewRefreshService(q *RankingService, c domain.Cache) *RefreshService {
	return &RefreshService{q: q, cache: c}
}

// RefreshRanking reloads the ranking for limit from upstream and overwrites
// its cache entry. On failure the previous entry is left untouched.
func (s *RefreshService) RefreshRanking(ctx context.Context, limit int) (int, error) {
	if err := s.q.validateLimit(limit); err != nil {
		return 0, err
	}
	cities, err := s.q.loadRanking(ctx, limit)
	if err != nil {
		return 0, err
	}
	return len(cities), nil
}

// RefreshCity reloads one city by English name. A name that no longer
// resolves has its stale entry removed so readers re-query it.
func (s *RefreshService) RefreshCity(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return false, err
	}

	_, found, err := s.q.loadCity(ctx, name)
	if err != nil {
		return false, err
	}
	if !found {
		if derr := s.cache.Del(ctx, cityKey(name)); derr != nil {
			log.Warn().Err(derr).Str("name", name).Msg("evict stale city failed")
		}
	}
	return found, nil
}
