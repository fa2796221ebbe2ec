package repository

import (
	"context"
	"time"
)

// RateLimitRepository tracks request rates for keys over a sliding window.
type RateLimitRepository interface {
	// Allow records one request for key and reports whether the key is
	// still within limit requests per window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
