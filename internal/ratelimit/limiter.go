package ratelimit

import "context"

// RateLimiter controls operation throughput per key, for example one key per
// lote so a single batch cannot flood measurement submissions.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Wait(ctx context.Context, key string) error
}
