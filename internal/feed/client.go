// Package feed fetches RSS results for (search term, source) pairs, with
// per-request timeouts, exponential backoff on transport failures and
// User-Agent rotation. A source that keeps failing yields nothing; it never
// aborts the crawl.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/agriwatch/newscrawler/internal/logger"
	"github.com/agriwatch/newscrawler/internal/retry"
	"github.com/agriwatch/newscrawler/internal/sources"
)

// Client issues feed requests. Rand and Sleep are injectable so tests can
// pin down jitter and backoff timing.
type Client struct {
	HTTP     *http.Client
	Registry *sources.Registry
	Timeout  time.Duration
	Attempts int

	Rand  func() float64
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(reg *sources.Registry, timeout time.Duration, attempts int) *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: timeout},
		Registry: reg,
		Timeout:  timeout,
		Attempts: attempts,
	}
}

// statusError marks an HTTP response that did not yield a feed.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// Retryable reports whether an error is a transport-level failure worth
// another attempt. Parse and content errors are not: a malformed feed will
// be malformed on the next attempt too.
func Retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

// Fetch requests one source for one search term. It retries transport
// failures with 2^attempt second backoff plus jitter, rotating the
// User-Agent each attempt. The returned error is informational; callers
// treat a failed source as empty.
func (c *Client) Fetch(ctx context.Context, term string, src sources.Source) ([]*gofeed.Item, error) {
	feedURL := src.BuildURL(term)

	var items []*gofeed.Item
	attempt := 0
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: c.Attempts,
		BaseDelay:   time.Second,
		MaxJitter:   500 * time.Millisecond,
		Retryable:   Retryable,
		Rand:        c.Rand,
		Sleep:       c.Sleep,
	}, func() error {
		attempt++
		fetched, err := c.fetchOnce(ctx, feedURL, attempt)
		if err != nil {
			logger.Debug("feed fetch attempt failed",
				"source", src.Name, "term", term, "attempt", attempt, "error", err)
			return err
		}
		items = fetched
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s for %q: %w", src.Name, term, err)
	}
	return items, nil
}

func (c *Client) fetchOnce(ctx context.Context, feedURL string, attempt int) ([]*gofeed.Item, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent(attempt))
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed.Items, nil
}

// userAgent rotates through the registry's pool, offset randomly so
// consecutive crawls don't always lead with the same agent.
func (c *Client) userAgent(attempt int) string {
	uas := c.Registry.UserAgents
	if len(uas) == 0 {
		return "Mozilla/5.0 (compatible; newscrawler/1.0)"
	}
	randFn := c.Rand
	if randFn == nil {
		randFn = rand.Float64
	}
	offset := int(randFn() * float64(len(uas)))
	return uas[(offset+attempt)%len(uas)]
}
