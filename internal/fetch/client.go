// Package fetch provides the cached, rate-limited JSON GET primitive every
// source driver goes through.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/rkalinin/corpora/internal/cache"
	"github.com/rkalinin/corpora/internal/document"
)

// Options configures one Client. The pipeline builds one Client per source
// so rate-limit state is never shared across unrelated endpoints.
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	MaxBodyBytes  int64
	BearerToken   string
	Retries       int
	MinInterval   time.Duration
	Burst         int
	RespectRobots bool
}

// Client issues HTTP GETs for JSON documents with caching, pacing, and
// bounded retries on transient upstream failures.
type Client struct {
	httpClient *http.Client
	limiter    *Limiter
	store      cache.Store // nil disables caching
	robots     *RobotsChecker
	logger     *zap.Logger

	userAgent   string
	bearerToken string
	maxBytes    int64
	retries     int

	fetched   atomic.Int64
	cacheHits atomic.Int64
}

// NewClient creates a fetch client. store may be nil to disable caching.
func NewClient(opts Options, store cache.Store, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 4_000_000
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var robots *RobotsChecker
	if opts.RespectRobots {
		robots = NewRobotsChecker(opts.UserAgent, 10*time.Second)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:     NewLimiter(opts.MinInterval, opts.Burst),
		store:       store,
		robots:      robots,
		logger:      logger,
		userAgent:   opts.UserAgent,
		bearerToken: opts.BearerToken,
		maxBytes:    opts.MaxBodyBytes,
		retries:     opts.Retries,
	}
}

// Get fetches and decodes a JSON document. With allowCache, a cached body
// short-circuits the network entirely; successful fresh bodies are written
// back so the next run is idempotent.
func (c *Client) Get(ctx context.Context, rawURL string, allowCache bool) (*document.Document, error) {
	key := cache.Key(rawURL)

	if allowCache && c.store != nil {
		if body, ok := c.store.Get(key); ok {
			doc, err := document.Decode(body)
			if err == nil {
				c.cacheHits.Add(1)
				return doc, nil
			}
			// Corrupt entry: drop it and refetch.
			_ = c.store.Delete(key)
		}
	}

	if c.robots != nil {
		allowed, crawlDelay, err := c.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			return nil, &Error{URL: rawURL, Kind: ErrRobots}
		}
		if crawlDelay > 0 {
			if host, hostErr := extractHost(rawURL); hostErr == nil {
				c.limiter.SetHostInterval(host, crawlDelay)
			}
		}
	}

	body, err := c.getWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := document.Decode(body)
	if err != nil {
		return nil, &Error{URL: rawURL, Kind: ErrDecode, Err: err}
	}

	if c.store != nil {
		if err := c.store.Set(key, body, 0); err != nil {
			c.logger.Warn("cache write failed", zap.String("url", rawURL), zap.Error(err))
		}
	}

	return doc, nil
}

// getWithRetry retries 429 and 5xx responses with exponential backoff; all
// other failures surface immediately.
func (c *Client) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte

	err := retry.Do(
		func() error {
			b, err := c.do(ctx, rawURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.retries)),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		var fe *Error
		if !errors.As(err, &fe) {
			fe = &Error{URL: rawURL, Kind: ErrNetwork, Err: err}
		}
		return nil, fe
	}

	return body, nil
}

// do performs one paced GET. Transient statuses come back as plain errors so
// retry.Do tries again; everything else is wrapped Unrecoverable.
func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return nil, retry.Unrecoverable(&Error{URL: rawURL, Kind: ErrNetwork, Err: err})
	}

	// The run context gates the limiter wait and retry admission above; once
	// a round trip starts it must finish under the client timeout, so a
	// cancelled run keeps the page already in flight.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(&Error{URL: rawURL, Kind: ErrRequest, Err: err})
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Unrecoverable(&Error{URL: rawURL, Kind: ErrNetwork, Err: err})
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &Error{URL: rawURL, Kind: ErrStatus, Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, retry.Unrecoverable(&Error{URL: rawURL, Kind: ErrStatus, Status: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, retry.Unrecoverable(&Error{URL: rawURL, Kind: ErrNetwork, Err: err})
	}

	c.fetched.Add(1)
	return body, nil
}

// Fetched returns the number of network fetches performed.
func (c *Client) Fetched() int64 {
	return c.fetched.Load()
}

// CacheHits returns the number of requests served from cache.
func (c *Client) CacheHits() int64 {
	return c.cacheHits.Load()
}
