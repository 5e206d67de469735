package domain

import "context"

// GraphClient runs a SPARQL SELECT and returns the raw results document.
type GraphClient interface {
	Select(ctx context.Context, query string) ([]byte, error)
}

// ImageFinder looks up a representative image for a topic by its English name.
// It never fails: any problem is reported as ok == false.
type ImageFinder interface {
	FindImage(ctx context.Context, englishName string) (url string, ok bool)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
