package jobdetails

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// Fetcher downloads the HTML of a job posting.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CollyFetcher fetches pages with a fresh colly collector per call.
type CollyFetcher struct {
	timeout time.Duration
}

func NewCollyFetcher(timeout time.Duration) *CollyFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &CollyFetcher{timeout: timeout}
}

func (f *CollyFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid job url %q", pageURL)
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxBodySize(5<<20),
	)
	c.SetRequestTimeout(f.timeout)
	// запрос отменяется вместе с ctx
	c.WithTransport(ctxTransport{ctx: ctx, base: http.DefaultTransport})

	var (
		body     string
		fetchErr error
	)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
		slog.DebugContext(ctx, "job page fetched", "url", r.Request.URL.String(), "bytes", len(r.Body))
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: status %d: %w", pageURL, r.StatusCode, err)
	})

	if err := c.Visit(u.String()); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return "", fetchErr
	}
	return body, nil
}

type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
