package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Policy is a token bucket: Burst requests at once, refilled at Rate tokens
// per second.
type Policy struct {
	Rate  float64
	Burst int
}

// PerMinute builds a policy refilling n tokens a minute.
func PerMinute(n float64, burst int) Policy {
	return Policy{Rate: n / 60, Burst: burst}
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func (p Policy) validate(key string) error {
	switch {
	case key == "":
		return errors.New("rate limiter key is empty")
	case p.Rate <= 0:
		return errors.New("rate limiter rate must be positive")
	case p.Burst <= 0:
		return errors.New("rate limiter burst must be positive")
	}
	return nil
}

func (p Policy) result(allowed bool, tokens float64) Result {
	res := Result{Allowed: allowed, Limit: p.Burst, Remaining: int(tokens)}
	if !allowed {
		needed := 1 - tokens
		if needed > 0 {
			res.RetryAfter = time.Duration(needed / p.Rate * float64(time.Second))
		}
	}
	return res
}
