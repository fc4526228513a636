// Package backoff computes retry delays for failed acquisition
// attempts. The policy is pure computation: callers apply the returned
// delay by suspending, the policy itself never sleeps.
package backoff

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Policy computes exponential backoff delays with uniform jitter. The
// delay for a given attempt is base * 2^attempt seconds plus a jitter
// drawn uniformly from [0, 1) seconds, which keeps concurrent items
// from synchronizing their retries.
type Policy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a policy seeded from the current time.
func New() *Policy {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource returns a policy drawing jitter from src. Tests pass a
// fixed seed for deterministic delays.
func NewWithSource(src rand.Source) *Policy {
	return &Policy{rng: rand.New(src)}
}

// NoJitter returns a policy whose delays are exactly base * 2^attempt,
// for tests that assert the deterministic lower bound.
func NoJitter() *Policy {
	return &Policy{}
}

// Delay computes the wait before retry number attempt (zero-based).
// base is in seconds. The result is monotonically non-decreasing in
// attempt in expectation.
func (p *Policy) Delay(attempt int, base float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	seconds := base * math.Pow(2, float64(attempt))
	seconds += p.jitter()
	return time.Duration(seconds * float64(time.Second))
}

func (p *Policy) jitter() float64 {
	if p.rng == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}
