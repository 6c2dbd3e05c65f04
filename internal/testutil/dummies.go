// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/model"
)

type errString struct{ s string }

func (e *errString) Error() string { return e.s }

// Err returns a plain error with the given message.
func Err(s string) error { return &errString{s} }

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements interfaces.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...interfaces.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...interfaces.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...interfaces.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...interfaces.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...interfaces.Field) interfaces.Logger { return l }

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements interfaces.WebClient.
// By default it returns body "ok:<url>" with status 200.
// Set FailURLs[url] = true to force an error, StatusCodes[url] to override
// the status, or Bodies[url] to override the body for a specific URL.
type DummyWebClient struct {
	ResponseDelay time.Duration
	FailURLs      map[string]bool
	StatusCodes   map[string]int
	Bodies        map[string][]byte
	mu            sync.Mutex
	Requests      []*model.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *model.Request) (*model.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}

	status := 200
	if d.StatusCodes != nil && d.StatusCodes[req.URL] != 0 {
		status = d.StatusCodes[req.URL]
	}
	body := []byte("ok:" + req.URL)
	if d.Bodies != nil && d.Bodies[req.URL] != nil {
		body = d.Bodies[req.URL]
	}

	return &model.Response{
		Request:    req,
		FinalURL:   req.URL,
		Headers:    http.Header{},
		Body:       body,
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

// RequestCount returns how many requests hit the given URL.
func (d *DummyWebClient) RequestCount(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.Requests {
		if r.URL == url {
			n++
		}
	}
	return n
}

func (d *DummyWebClient) Close() error { return nil }

// ─── Extractor ─────────────────────────────────────────────────────────

// DummyExtractor implements interfaces.Extractor with a preconfigured result.
type DummyExtractor struct {
	FeatureName string
	Result      any
	Err         error
	Delay       time.Duration
	Deadline    time.Duration
}

func (d *DummyExtractor) Name() string { return d.FeatureName }

func (d *DummyExtractor) Timeout() time.Duration { return d.Deadline }

func (d *DummyExtractor) Extract(ctx context.Context, _ *model.Document) (any, error) {
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.Err != nil {
		return nil, d.Err
	}
	if d.Result != nil {
		return d.Result, nil
	}
	return "dummy:" + d.FeatureName, nil
}

// ─── Scorer ────────────────────────────────────────────────────────────

// DummyScorer implements interfaces.Scorer with a fixed score.
type DummyScorer struct {
	ScorerName string
	Inputs     []string
	ScoreValue float64
	Confidence float64
	Err        error
	Delay      time.Duration
	Deadline   time.Duration
}

func (d *DummyScorer) Name() string { return d.ScorerName }

func (d *DummyScorer) Needs() []string { return d.Inputs }

func (d *DummyScorer) Timeout() time.Duration { return d.Deadline }

func (d *DummyScorer) Score(ctx context.Context, _ model.FeatureSet) (*model.PartialScore, error) {
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return &model.PartialScore{
		ScorerName: d.ScorerName,
		Score:      d.ScoreValue,
		Confidence: d.Confidence,
		Rationale:  "dummy score",
	}, nil
}
