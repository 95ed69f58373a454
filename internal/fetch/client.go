// Package fetch wraps outbound HTTP for the adapters: one client with a
// shared timeout, a polite pacing limiter, feed parsing and HTML document
// helpers. Adapters never build their own http.Client.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "feedpulse/1.0 (+https://github.com/HSMDove/feedpulse)"

// maxBodyBytes caps how much of a response we are willing to read; feeds and
// profile pages beyond this are almost certainly not what we asked for.
const maxBodyBytes = 8 << 20

type Client struct {
	http      *http.Client
	parser    *gofeed.Parser
	limiter   *rate.Limiter
	userAgent string
}

// NewClient builds a Client with the given per-request timeout and a global
// requests-per-second ceiling shared by every adapter.
func NewClient(timeout time.Duration, rps float64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if rps <= 0 {
		rps = 4
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		parser:    gofeed.NewParser(),
		limiter:   rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		userAgent: defaultUserAgent,
	}
}

// Get performs a rate-limited GET. The caller owns the body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", url, resp.Status)
	}
	return resp, nil
}

// Feed fetches and parses url as RSS/Atom.
func (c *Client) Feed(ctx context.Context, url string) (*gofeed.Feed, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := c.parser.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}
	return feed, nil
}

// FeedRetry is Feed with fixed-backoff retries for transient failures.
// attempts is the total number of tries, not the number of retries.
func (c *Client) FeedRetry(ctx context.Context, url string, attempts int, backoff time.Duration) (*gofeed.Feed, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		feed, err := c.Feed(ctx, url)
		if err == nil {
			return feed, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Document fetches url and parses it as HTML.
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", url, err)
	}
	return doc, nil
}

// Body fetches url and returns the raw response body as a string. Used by
// the scrape fallbacks that regex over markup instead of parsing it.
func (c *Client) Body(ctx context.Context, url string) (string, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
