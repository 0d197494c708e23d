package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ppiankov/factbot/internal/model"
)

// DefaultChannel is the limiter key for messages without a channel
const DefaultChannel = "default"

// Limiter throttles message processing per channel with token buckets
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive rate disables throttling.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// NewLimiterFromConfig creates a limiter with the default rate and every
// per-channel override from cfg
func NewLimiterFromConfig(cfg model.RateLimitingConfig) *Limiter {
	l := NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for channel, r := range cfg.Channels {
		l.SetChannelRate(channel, r.RequestsPerSecond, r.BurstSize)
	}
	return l
}

// Wait blocks until the channel may process another message
func (l *Limiter) Wait(ctx context.Context, channel string) error {
	return l.getLimiter(channel).Wait(ctx)
}

// Allow takes a token when one is available now and reports whether it did
func (l *Limiter) Allow(channel string) bool {
	return l.getLimiter(channel).Allow()
}

// getLimiter returns the rate limiter for a channel
func (l *Limiter) getLimiter(channel string) *rate.Limiter {
	if channel == "" {
		channel = DefaultChannel
	}

	l.mu.RLock()
	limiter, exists := l.limiters[channel]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[channel]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[channel] = limiter

	return limiter
}

// SetChannelRate sets a custom rate limit for one channel
func (l *Limiter) SetChannelRate(channel string, requestsPerSecond float64, burst int) {
	if channel == "" {
		channel = DefaultChannel
	}
	if burst <= 0 {
		burst = l.defaultBurst
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[channel] = rate.NewLimiter(limit, burst)
}
