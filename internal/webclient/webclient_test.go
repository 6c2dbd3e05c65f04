package webclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/model"
	"github.com/webguardai/webguard/internal/testutil"
	"github.com/webguardai/webguard/internal/webclient"
)

// ─── NetHTTP: real HTTP round-trip via httptest ────────────────────────

func TestNetHTTPClient_Do_GET_ReturnsBody(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "hello")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "response body")
	}))
	defer ts.Close()

	client := webclient.NewNetHTTPClient(webclient.Config{}, &testutil.DummyLogger{}, ts.Client())
	defer client.Close()

	resp, err := client.Do(context.Background(), &model.Request{
		Method: "GET",
		URL:    ts.URL + "/test",
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "response body" {
		t.Errorf("expected 'response body', got %q", resp.Body)
	}
	if resp.Headers.Get("X-Custom") != "hello" {
		t.Errorf("expected X-Custom header 'hello', got %q", resp.Headers.Get("X-Custom"))
	}
	if resp.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestNetHTTPClient_Do_FollowsRedirects(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusFound)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "landed")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := webclient.NewNetHTTPClient(webclient.Config{}, &testutil.DummyLogger{}, ts.Client())
	defer client.Close()

	resp, err := client.Do(context.Background(), &model.Request{Method: "GET", URL: ts.URL + "/start"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.FinalURL != ts.URL+"/end" {
		t.Errorf("FinalURL = %q, want %q", resp.FinalURL, ts.URL+"/end")
	}
	if string(resp.Body) != "landed" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestNetHTTPClient_Do_CapsBody(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 4096))
	}))
	defer ts.Close()

	client := webclient.NewNetHTTPClient(webclient.Config{MaxBodyBytes: 100}, &testutil.DummyLogger{}, ts.Client())
	defer client.Close()

	resp, err := client.Do(context.Background(), &model.Request{Method: "GET", URL: ts.URL})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(resp.Body) != 100 {
		t.Errorf("body length = %d, want 100", len(resp.Body))
	}
}

func TestNetHTTPClient_Do_SetsUserAgent(t *testing.T) {
	t.Parallel()
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	client := webclient.NewNetHTTPClient(webclient.Config{UserAgent: "WebGuardBot/1.0"}, &testutil.DummyLogger{}, ts.Client())
	defer client.Close()

	if _, err := client.Do(context.Background(), &model.Request{Method: "GET", URL: ts.URL}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotUA != "WebGuardBot/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

// ─── Factory ───────────────────────────────────────────────────────────

func TestFactory_DefaultBackendsRegistered(t *testing.T) {
	webclient.RegisterDefaultBackends()

	wc, err := webclient.New(webclient.Config{Backend: webclient.BackendNetHTTP}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("New(nethttp): %v", err)
	}
	defer wc.Close()
	if _, ok := wc.(*webclient.NetHTTPClient); !ok {
		t.Errorf("got %T, want *NetHTTPClient", wc)
	}
}

func TestFactory_EmptyBackendFallsBackToNetHTTP(t *testing.T) {
	webclient.RegisterDefaultBackends()

	wc, err := webclient.New(webclient.Config{}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wc.Close()
	if _, ok := wc.(*webclient.NetHTTPClient); !ok {
		t.Errorf("got %T, want *NetHTTPClient", wc)
	}
}

func TestFactory_UnknownBackend(t *testing.T) {
	if _, err := webclient.New(webclient.Config{Backend: "carrier-pigeon"}, &testutil.DummyLogger{}); err == nil {
		t.Error("expected error for unregistered backend")
	}
}

func TestFactory_CustomBackend(t *testing.T) {
	webclient.RegisterBackend("dummy", func(_ webclient.Config, _ interfaces.Logger) (interfaces.WebClient, error) {
		return &testutil.DummyWebClient{}, nil
	})

	wc, err := webclient.New(webclient.Config{Backend: "dummy"}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("New(dummy): %v", err)
	}
	defer wc.Close()
	if _, ok := wc.(*testutil.DummyWebClient); !ok {
		t.Errorf("got %T, want *DummyWebClient", wc)
	}
}
