package resilience

import (
	"math"
	"time"
)

// RetryPolicy controls how often and how patiently one operation is retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// Jitter is the fraction of each wait drawn at random, in [0,1].
	Jitter float64
	// MaxRetryAfter caps server supplied retry hints such as Retry-After.
	MaxRetryAfter time.Duration
}

type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

type Config struct {
	Retry   RetryPolicy
	Breaker BreakerPolicy
	// Operations overrides Retry for specific operation names.
	Operations map[string]RetryPolicy

	// Optional hooks, used for metrics.
	OnRetry       func(operation string)
	OnStateChange func(operation, from, to string)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     400 * time.Millisecond,
		Multiplier:     2.0,
		Jitter:         0.2,
		MaxRetryAfter:  2 * time.Second,
	}
}

// LLMRetryPolicy waits longer between attempts because chat completion
// providers rate limit per minute and often send Retry-After.
func LLMRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     4 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.3,
		MaxRetryAfter:  10 * time.Second,
	}
}

// PublishRetryPolicy favours quick retries so an upload request is not held
// up by a reconnecting NATS client.
func PublishRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    4,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
		Multiplier:     2.0,
		Jitter:         0.2,
	}
}

func DefaultBreakerPolicy() BreakerPolicy {
	return BreakerPolicy{
		Enabled:          true,
		MinRequests:      10,
		FailureRatio:     0.5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 2,
	}
}

func DefaultConfig() Config {
	return Config{
		Retry:   DefaultRetryPolicy(),
		Breaker: DefaultBreakerPolicy(),
	}
}

func (c Config) normalize() Config {
	out := c
	out.Retry = c.Retry.normalize()
	out.Breaker = c.Breaker.normalize()
	if len(c.Operations) > 0 {
		out.Operations = make(map[string]RetryPolicy, len(c.Operations))
		for op, p := range c.Operations {
			out.Operations[op] = p.normalize()
		}
	}
	return out
}

func (c Config) policyFor(operation string) RetryPolicy {
	if p, ok := c.Operations[operation]; ok {
		return p
	}
	return c.Retry
}

func (p RetryPolicy) normalize() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = def.InitialBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = def.Multiplier
	}
	p.Jitter = math.Min(math.Max(p.Jitter, 0), 1)
	if p.MaxRetryAfter < p.MaxBackoff {
		p.MaxRetryAfter = p.MaxBackoff
	}
	return p
}

// delay returns the wait before attempt+1. A positive hint from the server
// wins over the exponential schedule, capped at MaxRetryAfter. rnd returns a
// value in [0,1).
func (p RetryPolicy) delay(attempt int, hint time.Duration, rnd func() float64) time.Duration {
	if hint > 0 {
		return min(hint, p.MaxRetryAfter)
	}
	wait := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt-1))
	wait = math.Min(wait, float64(p.MaxBackoff))
	if p.Jitter > 0 {
		wait -= wait * p.Jitter * rnd()
	}
	return time.Duration(wait)
}

func (b BreakerPolicy) normalize() BreakerPolicy {
	def := DefaultBreakerPolicy()
	if b.MinRequests == 0 {
		b.MinRequests = def.MinRequests
	}
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		b.FailureRatio = def.FailureRatio
	}
	if b.OpenTimeout <= 0 {
		b.OpenTimeout = def.OpenTimeout
	}
	if b.HalfOpenMaxCalls == 0 {
		b.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return b
}
