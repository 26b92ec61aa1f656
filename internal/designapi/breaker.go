package designapi

import (
	"sync"
	"time"
)

// breakerState is one of closed, open, half-open (spec.md §5).
type breakerState int

const (
	closed breakerState = iota
	open
	halfOpen
)

// Breaker is a small closed/open/half-open circuit breaker guarding the
// external API client (SPEC_FULL.md §4.2). It trips after threshold consecutive
// failures, cools down for cooldown, then allows one half-open trial call.
type Breaker struct {
	mu                  sync.Mutex
	state               breakerState
	consecutiveFailures int
	threshold           int
	cooldown            time.Duration
	openedAt            time.Time
}

func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a new call may proceed, transitioning open -> half-open
// once the cooldown has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case closed:
		return true
	case open:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = halfOpen
			return true
		}
		return false
	case halfOpen:
		return true
	default:
		return true
	}
}

// RecordSuccess closes the breaker, resetting the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = closed
	b.consecutiveFailures = 0
}

// RecordFailure counts a failure, tripping the breaker open past the
// threshold, or re-opening immediately if a half-open trial failed.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == halfOpen {
		b.state = open
		b.openedAt = time.Now()
		return
	}

	b.consecutiveFailures++
	if b.consecutiveFailures >= b.threshold {
		b.state = open
		b.openedAt = time.Now()
	}
}
