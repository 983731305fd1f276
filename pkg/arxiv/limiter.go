package arxiv

import (
	"context"
	"sync"
	"time"
)

// intervalLimiter lets one request through at a time and spaces consecutive
// requests at least minInterval apart, as the arXiv API terms ask.
type intervalLimiter struct {
	minInterval time.Duration
	slot        chan struct{}

	mu          sync.Mutex
	lastRequest time.Time
}

func newIntervalLimiter(minInterval time.Duration) *intervalLimiter {
	return &intervalLimiter{
		minInterval: minInterval,
		slot:        make(chan struct{}, 1),
	}
}

// wait blocks until the caller may issue a request. A successful wait must be paired with done.
func (l *intervalLimiter) wait(ctx context.Context) error {
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	last := l.lastRequest
	l.mu.Unlock()

	if l.minInterval <= 0 || last.IsZero() {
		return nil
	}
	elapsed := time.Since(last)
	if elapsed >= l.minInterval {
		return nil
	}

	timer := time.NewTimer(l.minInterval - elapsed)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		<-l.slot
		return ctx.Err()
	}
}

// done records the request time and frees the slot.
func (l *intervalLimiter) done() {
	l.mu.Lock()
	l.lastRequest = time.Now()
	l.mu.Unlock()
	<-l.slot
}
