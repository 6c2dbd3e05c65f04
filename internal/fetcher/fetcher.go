// Package fetcher retrieves documents under a politeness policy: robots.txt
// consultation, per-host rate limiting and bounded retries with exponential
// backoff. It is the only pipeline component that performs network I/O
// against analysis targets.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/model"
)

type robotsEntry struct {
	group     *robotstxt.Group
	fetchedAt time.Time
}

// Fetcher wraps a WebClient with the politeness policy.
type Fetcher struct {
	cfg    Config
	wc     interfaces.WebClient
	logger interfaces.Logger

	mu       sync.Mutex
	robots   map[string]*robotsEntry
	limiters map[string]*rate.Limiter
}

// New creates a Fetcher over the given WebClient.
func New(cfg Config, wc interfaces.WebClient, logger interfaces.Logger) (*Fetcher, error) {
	if wc == nil {
		return nil, errors.New("fetcher: nil webclient")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Fetcher{
		cfg:      cfg,
		wc:       wc,
		logger:   logger.With(interfaces.Field{Key: "component", Value: "fetcher"}),
		robots:   make(map[string]*robotsEntry),
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// Fetch retrieves rawURL and returns the Document, or a *Error describing
// why the target is unreachable. Retries happen inside this call; the
// caller sees only the final outcome.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, &Error{Kind: KindNetworkError, URL: rawURL, Err: fmt.Errorf("invalid url: %w", err)}
	}

	if f.cfg.RespectRobots {
		allowed, err := f.robotsAllowed(ctx, u)
		if err != nil {
			f.logger.Warn("robots.txt lookup failed, allowing fetch",
				interfaces.Field{Key: "host", Value: u.Host},
				interfaces.Field{Key: "error", Value: err.Error()})
		} else if !allowed {
			return nil, &Error{Kind: KindBlockedByRobots, URL: rawURL}
		}
	}

	var lastErr *Error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if err := f.limiter(u.Hostname()).Wait(ctx); err != nil {
			return nil, &Error{Kind: KindTimeout, URL: rawURL, Err: err}
		}

		doc, ferr := f.fetchOnce(ctx, rawURL)
		if ferr == nil {
			return doc, nil
		}
		lastErr = ferr

		if !ferr.Retryable() || attempt == f.cfg.MaxAttempts {
			break
		}

		delay := f.cfg.RetryBaseDelay << (attempt - 1)
		f.logger.Debug("retrying fetch",
			interfaces.Field{Key: "url", Value: rawURL},
			interfaces.Field{Key: "attempt", Value: attempt},
			interfaces.Field{Key: "delay", Value: delay.String()})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &Error{Kind: KindTimeout, URL: rawURL, Err: ctx.Err()}
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*model.Document, *Error) {
	reqCtx := ctx
	if f.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.cfg.RequestTimeout)
		defer cancel()
	}

	req := &model.Request{
		Method:  http.MethodGet,
		URL:     rawURL,
		Headers: http.Header{"User-Agent": []string{f.cfg.UserAgent}},
	}

	resp, err := f.wc.Do(reqCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &Error{Kind: KindTimeout, URL: rawURL, Err: err}
		}
		return nil, &Error{Kind: KindNetworkError, URL: rawURL, Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{Kind: KindHTTPError, URL: rawURL, StatusCode: resp.StatusCode}
	}

	return &model.Document{
		URL:        rawURL,
		FinalURL:   resp.FinalURL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
		FetchedAt:  resp.FetchedAt,
	}, nil
}

// robotsAllowed consults the host's robots.txt, caching the parsed group
// per host for RobotsTTL. A missing or unreadable robots.txt allows all.
func (f *Fetcher) robotsAllowed(ctx context.Context, u *url.URL) (bool, error) {
	host := u.Scheme + "://" + u.Host

	f.mu.Lock()
	entry, ok := f.robots[host]
	f.mu.Unlock()

	if !ok || time.Since(entry.fetchedAt) > f.cfg.RobotsTTL {
		group, err := f.fetchRobots(ctx, host)
		if err != nil {
			return true, err
		}
		entry = &robotsEntry{group: group, fetchedAt: time.Now().UTC()}
		f.mu.Lock()
		f.robots[host] = entry
		f.mu.Unlock()
	}

	if entry.group == nil {
		return true, nil
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return entry.group.Test(path), nil
}

func (f *Fetcher) fetchRobots(ctx context.Context, host string) (*robotstxt.Group, error) {
	reqCtx := ctx
	if f.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.cfg.RequestTimeout)
		defer cancel()
	}

	resp, err := f.wc.Do(reqCtx, &model.Request{
		Method:  http.MethodGet,
		URL:     host + "/robots.txt",
		Headers: http.Header{"User-Agent": []string{f.cfg.UserAgent}},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data.FindGroup(f.cfg.UserAgent), nil
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		rps := f.cfg.HostRPS
		if rps <= 0 {
			rps = float64(rate.Inf)
		}
		burst := f.cfg.HostBurst
		if burst <= 0 {
			burst = 1
		}
		l = rate.NewLimiter(rate.Limit(rps), burst)
		f.limiters[host] = l
	}
	return l
}
