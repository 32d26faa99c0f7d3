// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit enforces minimum spacing between outbound requests.
//
// NCBI permits 3 requests per second without an API key and 10 per
// second with one. The limiter is an explicit value owned by the
// pipeline invocation so tests can substitute a no-op.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultRate is the permitted requests per second without an API key.
	DefaultRate = 3

	// KeyedRate is the permitted requests per second with an API key.
	KeyedRate = 10
)

// Limiter blocks until the next outbound request is permitted.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Interval spaces calls at least 1/rate apart. The first call never waits.
type Interval struct {
	every time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewInterval returns a limiter permitting rate calls per second.
func NewInterval(rate int) *Interval {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Interval{every: time.Second / time.Duration(rate)}
}

// ForKey returns the limiter matching the supplied API key: 10/s when a
// key is present, 3/s otherwise.
func ForKey(apiKey string) *Interval {
	if apiKey != "" {
		return NewInterval(KeyedRate)
	}
	return NewInterval(DefaultRate)
}

// Wait blocks until the mandated interval since the previous call has
// elapsed, or until the context is cancelled.
func (l *Interval) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	remaining := l.every - now.Sub(l.last)
	if remaining <= 0 {
		l.last = now
		l.mu.Unlock()
		return ctx.Err()
	}
	l.last = now.Add(remaining)
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(remaining):
		return nil
	}
}

// Nop is a limiter that never waits. Used in tests.
type Nop struct{}

// Wait returns immediately.
func (Nop) Wait(ctx context.Context) error { return ctx.Err() }
