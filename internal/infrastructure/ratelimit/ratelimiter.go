package ratelimit

import (
	"context"
	"time"
)

// Config holds the per-window request ceilings for one counter key.
// A zero value disables the corresponding window.
type Config struct {
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
}

// UsageCounter is the secondary per-key abuse counter. It blunts volumetric
// abuse independently of the credit balance; counts are approximate and must
// never be used as the source of truth for billing.
type UsageCounter interface {
	Allow(ctx context.Context, key string, config Config) (bool, error)
	GetRemaining(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}
