package core

// fetch_limiter.go caps outbound provider calls.
//
// A worksheet miss costs a metadata call plus a values call, a document
// miss one records call. Each call holds one slot for its duration, so a
// burst of cold keys queues here instead of spending the provider's quota.
// A call that cannot get a slot within maxWait fails with
// ErrTooManyFetches and surfaces as 503.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyFetches means no provider slot freed up within the wait limit.
var ErrTooManyFetches = errors.New("too many concurrent fetches, please try again later")

// Defaults used when FETCH_MAX_CONCURRENT or FETCH_MAX_WAIT are unset or
// not positive.
const (
	DefaultMaxConcurrentFetches = 8
	DefaultMaxFetchWait         = 10 * time.Second
)

// FetchLimiter is a counting semaphore over provider calls. The Service
// wraps every source call in Do.
type FetchLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewFetchLimiter returns a limiter with maxConcurrent slots.
func NewFetchLimiter(maxConcurrent int, maxWait time.Duration) *FetchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentFetches
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxFetchWait
	}

	return &FetchLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, giving up after maxWait or when ctx ends.
// A nil return must be paired with Release.
func (l *FetchLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil

	case <-timer.C:
		return ErrTooManyFetches

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (l *FetchLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Do runs one provider call inside a slot.
func (l *FetchLimiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// ActiveCount reports how many provider calls hold a slot.
func (l *FetchLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain polls until no provider call holds a slot. Cache fills run
// detached from requests, so shutdown uses this after the HTTP server stops.
func (l *FetchLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// FetchLimiterStatus is reported under "fetch" by /healthz.
type FetchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status snapshots slot usage.
func (l *FetchLimiter) Status() FetchLimiterStatus {
	return FetchLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
