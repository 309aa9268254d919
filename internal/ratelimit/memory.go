package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/smallbiznis/coursehub/internal/clock"
)

const maxMemoryBuckets = 10000

type bucket struct {
	tokens float64
	ts     time.Time
}

// MemoryBucket is the single-process token bucket used without redis.
type MemoryBucket struct {
	mu      sync.Mutex
	clock   clock.Clock
	policy  Policy
	buckets map[string]*bucket
}

func NewMemoryBucket(clk clock.Clock, policy Policy) *MemoryBucket {
	return &MemoryBucket{
		clock:   clk,
		policy:  policy,
		buckets: make(map[string]*bucket),
	}
}

func (m *MemoryBucket) Allow(_ context.Context, key string) (Result, error) {
	if err := m.policy.validate(key); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	b, ok := m.buckets[key]
	if !ok {
		if len(m.buckets) >= maxMemoryBuckets {
			m.sweep(now)
		}
		b = &bucket{tokens: float64(m.policy.Burst), ts: now}
		m.buckets[key] = b
	} else {
		m.refill(b, now)
	}

	allowed := b.tokens >= 1
	if allowed {
		b.tokens--
	}
	return m.policy.result(allowed, b.tokens), nil
}

func (m *MemoryBucket) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.ts).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(float64(m.policy.Burst), b.tokens+elapsed*m.policy.Rate)
	}
	b.ts = now
}

// sweep drops buckets that have refilled completely.
func (m *MemoryBucket) sweep(now time.Time) {
	for key, b := range m.buckets {
		m.refill(b, now)
		if b.tokens >= float64(m.policy.Burst) {
			delete(m.buckets, key)
		}
	}
}
