// Package collyfetcher implements the catalog Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

// Config controls collector behavior.
type Config struct {
	BaseURL   string
	UserAgent string
	Referer   string
	Timeout   time.Duration
}

// Fetcher fetches one catalog page per call via a Colly collector. It does
// not retry and keeps no cache across calls.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{cfg: cfg, baseCollector: c, logger: logger}
}

// Fetch executes a single HTTP GET against the catalog's ISBN endpoint.
func (f *Fetcher) Fetch(ctx context.Context, isbn string) (pipeline.Payload, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return pipeline.Payload{}, fmt.Errorf("%w: empty isbn", pipeline.ErrFetch)
	}
	target := f.lookupURL(isbn)

	var (
		payload  pipeline.Payload
		fetchErr error
	)
	start := time.Now()

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.OnRequest(func(r *colly.Request) {
		if f.cfg.Referer != "" {
			r.Headers.Set("Referer", f.cfg.Referer)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		payload = pipeline.Payload{
			URL:        target,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte{}, r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = classifyStatus(status, err)
	})

	// Visit surfaces HTTP status errors as well; the OnError callback has
	// already classified those, so it wins over the generic wrap.
	if err := collector.Visit(target); err != nil {
		if fetchErr != nil {
			return pipeline.Payload{}, fetchErr
		}
		return pipeline.Payload{}, fmt.Errorf("%w: visit %s: %v", pipeline.ErrFetch, target, err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return pipeline.Payload{}, fmt.Errorf("%w: %v", pipeline.ErrFetch, err)
	}
	if fetchErr != nil {
		return pipeline.Payload{}, fetchErr
	}
	if payload.StatusCode == 0 {
		return pipeline.Payload{}, fmt.Errorf("%w: no response for %s", pipeline.ErrFetch, target)
	}

	f.logger.Debug("catalog page fetched",
		zap.String("url", payload.FinalURL),
		zap.Int("status", payload.StatusCode),
		zap.Int("bytes", len(payload.Body)),
	)
	return payload, nil
}

func (f *Fetcher) lookupURL(isbn string) string {
	base := strings.TrimRight(f.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/isbn/%s/", base, url.PathEscape(isbn))
}

// classifyStatus maps an HTTP failure onto the pipeline error taxonomy.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: no catalog page for this isbn", pipeline.ErrNotFound)
	case status == http.StatusForbidden || status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: catalog returned status %d", pipeline.ErrRateLimited, status)
	case status >= 400:
		return fmt.Errorf("%w: catalog returned status %d", pipeline.ErrFetch, status)
	default:
		return fmt.Errorf("%w: %v", pipeline.ErrFetch, err)
	}
}
