// Package headless contains a catalog fetcher that renders via a browser,
// for when the catalog serves an interstitial to plain HTTP clients.
package headless

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

// Config controls the behavior of the headless fetcher.
type Config struct {
	BaseURL           string
	UserAgent         string
	NavigationTimeout time.Duration
}

// Fetcher implements pipeline.Fetcher using chromedp and headless Chrome.
// Each Fetch performs exactly one navigation.
type Fetcher struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New creates a headless fetcher backed by chromedp.
func New(cfg Config) (*Fetcher, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch navigates to the catalog's ISBN endpoint and returns the rendered DOM.
func (f *Fetcher) Fetch(ctx context.Context, isbn string) (pipeline.Payload, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return pipeline.Payload{}, fmt.Errorf("%w: empty isbn", pipeline.ErrFetch)
	}
	base := strings.TrimRight(f.cfg.BaseURL, "/")
	target := fmt.Sprintf("%s/isbn/%s/", base, url.PathEscape(isbn))

	taskCtx, taskCancel := chromedp.NewContext(f.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, f.cfg.NavigationTimeout)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		taskCtx, dcancel = context.WithDeadline(taskCtx, deadline)
		defer dcancel()
	}

	var status int
	chromedp.ListenTarget(taskCtx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if resp.Type == network.ResourceTypeDocument && status == 0 {
				status = int(resp.Response.Status)
			}
		}
	})

	start := time.Now()
	var (
		html     string
		finalURL string
	)
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := network.Enable().Do(ctx); err != nil {
				return fmt.Errorf("enable network domain: %w", err)
			}
			if f.cfg.UserAgent != "" {
				if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
					return fmt.Errorf("set user-agent: %w", err)
				}
			}
			return nil
		}),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return pipeline.Payload{}, fmt.Errorf("%w: chromedp run: %v", pipeline.ErrFetch, err)
	}

	if err := classifyStatus(status); err != nil {
		return pipeline.Payload{}, err
	}
	if status == 0 {
		status = http.StatusOK
	}

	return pipeline.Payload{
		URL:        target,
		FinalURL:   finalURL,
		StatusCode: status,
		Body:       []byte(html),
		Duration:   time.Since(start),
	}, nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: no catalog page for this isbn", pipeline.ErrNotFound)
	case status == http.StatusForbidden || status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: catalog returned status %d", pipeline.ErrRateLimited, status)
	case status >= 400:
		return fmt.Errorf("%w: catalog returned status %d", pipeline.ErrFetch, status)
	default:
		return nil
	}
}
