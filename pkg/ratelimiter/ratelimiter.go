package ratelimiter

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RateLimiter is a token bucket refilled continuously at refillRate tokens per second.
type RateLimiter struct {
	refillRate float64
	lastRefill time.Time
	tokens     float64
	maxTokens  float64
	mu         *sync.Mutex
	now        func() time.Time
}

func NewRateLimiter(maxTokens float64, refillRate float64) *RateLimiter {
	return newRateLimiter(maxTokens, refillRate, time.Now)
}

func newRateLimiter(maxTokens float64, refillRate float64, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		refillRate: refillRate,
		mu:         new(sync.Mutex),
		maxTokens:  maxTokens,
		tokens:     maxTokens,
		lastRefill: now(),
		now:        now,
	}
}

func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		r.tokens--
		return true
	}

	return false
}

func (r *RateLimiter) idleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRefill
}

func (r *RateLimiter) refill() {
	now := r.now()
	elapsed := now.Sub(r.lastRefill).Seconds()

	r.tokens = math.Min(r.maxTokens, r.tokens+elapsed*r.refillRate)
	r.lastRefill = now
}

type Config struct {
	MaxTokens   float64
	RefillRate  float64
	MaxInactive time.Duration
	CleanUpFreq time.Duration
}

// PerClientLimiter keeps one bucket per client id and forgets clients idle longer than MaxInactive.
type PerClientLimiter struct {
	cfg      Config
	limiters map[string]*RateLimiter
	mu       *sync.RWMutex
	now      func() time.Time
}

func NewPerClientLimiter(cfg Config) *PerClientLimiter {
	if cfg.MaxInactive <= 0 {
		cfg.MaxInactive = time.Minute
	}
	if cfg.CleanUpFreq <= 0 {
		cfg.CleanUpFreq = time.Second * 30
	}
	return &PerClientLimiter{
		cfg:      cfg,
		limiters: make(map[string]*RateLimiter),
		mu:       new(sync.RWMutex),
		now:      time.Now,
	}
}

func (c *PerClientLimiter) Allow(cID string) bool {
	c.mu.RLock()
	rl, ok := c.limiters[cID]
	c.mu.RUnlock()
	if !ok {
		c.mu.Lock()
		rl, ok = c.limiters[cID]
		if !ok {
			rl = newRateLimiter(c.cfg.MaxTokens, c.cfg.RefillRate, c.now)
			c.limiters[cID] = rl
		}
		c.mu.Unlock()
	}

	return rl.Allow()
}

func (c *PerClientLimiter) Clients() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.limiters)
}

// Run evicts idle clients until ctx is done.
func (c *PerClientLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.CleanUpFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.cleanUp()
		}
	}
}

func (c *PerClientLimiter) cleanUp() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, rl := range c.limiters {
		if c.now().Sub(rl.idleSince()) >= c.cfg.MaxInactive {
			delete(c.limiters, id)
			logrus.WithField("client_id", id).Debug("RATE_LIMITER:CLIENT_EVICTED")
		}
	}
}
