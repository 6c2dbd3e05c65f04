package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/webguardai/webguard/internal/testutil"
	"github.com/webguardai/webguard/internal/webclient"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.UserAgent = "TestBot/1.0"
	cfg.RetryBaseDelay = 5 * time.Millisecond
	cfg.RequestTimeout = 2 * time.Second
	cfg.HostRPS = 0 // unlimited in tests
	return cfg
}

func newTestFetcher(t *testing.T, cfg Config) *Fetcher {
	t.Helper()
	wc := webclient.NewNetHTTPClient(webclient.DefaultConfig(), &testutil.DummyLogger{}, nil)
	t.Cleanup(func() { wc.Close() })
	f, err := New(cfg, wc, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())
	doc, err := f.Fetch(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if doc.StatusCode != 200 {
		t.Errorf("status = %d, want 200", doc.StatusCode)
	}
	if string(doc.Body) != "<html><body>hello</body></html>" {
		t.Errorf("unexpected body %q", doc.Body)
	}
	if doc.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestFetchBlockedByRobots(t *testing.T) {
	t.Parallel()
	var pageHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		pageHits.Add(1)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())

	_, err := f.Fetch(context.Background(), srv.URL+"/private/login")
	fe, ok := AsFetchError(err)
	if !ok || fe.Kind != KindBlockedByRobots {
		t.Fatalf("err = %v, want BLOCKED_BY_ROBOTS", err)
	}
	if n := pageHits.Load(); n != 0 {
		t.Errorf("disallowed page was fetched %d times", n)
	}

	// Allowed paths on the same host still go through.
	if _, err := f.Fetch(context.Background(), srv.URL+"/public"); err != nil {
		t.Fatalf("allowed fetch: %v", err)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())
	doc, err := f.Fetch(context.Background(), srv.URL+"/flaky")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(doc.Body) != "recovered" {
		t.Errorf("unexpected body %q", doc.Body)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
}

func TestFetchClientErrorIsTerminal(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())
	_, err := f.Fetch(context.Background(), srv.URL+"/gone")
	fe, ok := AsFetchError(err)
	if !ok || fe.Kind != KindHTTPError {
		t.Fatalf("err = %v, want HTTP_ERROR", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", fe.StatusCode)
	}
	if fe.Retryable() {
		t.Error("404 should not be retryable")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on 4xx)", n)
	}
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RequestTimeout = 30 * time.Millisecond
	cfg.MaxAttempts = 1
	f := newTestFetcher(t, cfg)

	_, err := f.Fetch(context.Background(), srv.URL+"/slow")
	fe, ok := AsFetchError(err)
	if !ok || fe.Kind != KindTimeout {
		t.Fatalf("err = %v, want TIMEOUT", err)
	}
}

func TestFetchNetworkErrorViaDummy(t *testing.T) {
	t.Parallel()
	url := "http://unreachable.test/page"
	wc := &testutil.DummyWebClient{FailURLs: map[string]bool{
		url: true,
		"http://unreachable.test/robots.txt": true,
	}}

	cfg := testConfig()
	cfg.MaxAttempts = 2
	f, err := New(cfg, wc, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = f.Fetch(context.Background(), url)
	fe, ok := AsFetchError(err)
	if !ok || fe.Kind != KindNetworkError {
		t.Fatalf("err = %v, want NETWORK_ERROR", err)
	}
	if got := wc.RequestCount(url); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestRobotsConsultedWithoutRequestTimeout(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /\n"))
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// A zero RequestTimeout must not expire the robots lookup and fail
	// open; the disallow still has to be honored.
	cfg := testConfig()
	cfg.RequestTimeout = 0
	f := newTestFetcher(t, cfg)

	_, err := f.Fetch(context.Background(), srv.URL+"/page")
	fe, ok := AsFetchError(err)
	if !ok || fe.Kind != KindBlockedByRobots {
		t.Fatalf("err = %v, want BLOCKED_BY_ROBOTS", err)
	}
}

func TestRobotsCachedPerHost(t *testing.T) {
	t.Parallel()
	var robotsHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			w.Write([]byte("User-agent: *\nAllow: /\n"))
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL+"/page"); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	if n := robotsHits.Load(); n != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", n)
	}
}
