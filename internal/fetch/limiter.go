package fetch

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum wall-clock gap between consecutive requests,
// tracked per host. Each Client owns one Limiter; sources never share a
// clock, so a slow source cannot head-of-line block the others.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter from a minimum inter-request interval.
func NewLimiter(minInterval time.Duration, burst int) *Limiter {
	if minInterval <= 0 {
		minInterval = 500 * time.Millisecond
	}
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Every(minInterval),
		defaultBurst: burst,
	}
}

// Wait blocks until the host of rawURL may be contacted again. This is the
// only suspension point in the fetch path besides network I/O itself.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := extractHost(rawURL)
	if err != nil {
		return err
	}

	return l.getLimiter(host).Wait(ctx)
}

// Allow reports whether a request to the URL's host would proceed without
// waiting.
func (l *Limiter) Allow(rawURL string) bool {
	host, err := extractHost(rawURL)
	if err != nil {
		return false
	}

	return l.getLimiter(host).Allow()
}

func (l *Limiter) getLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter

	return limiter
}

// SetHostInterval overrides pacing for a specific host, typically from a
// robots.txt crawl delay.
func (l *Limiter) SetHostInterval(host string, minInterval time.Duration) {
	if minInterval <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[host] = rate.NewLimiter(rate.Every(minInterval), 1)
}

func extractHost(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
