package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/webguardai/webguard/internal/model"
	"github.com/webguardai/webguard/internal/store"
	"github.com/webguardai/webguard/internal/testutil"
)

func testConfig() Config {
	return Config{
		MaxAttempts:    3,
		BaseDelay:      5 * time.Millisecond,
		RequestTimeout: 2 * time.Second,
	}
}

func verdictFor(requestID string) *model.Verdict {
	score := 0.9
	return &model.Verdict{
		RequestID:   requestID,
		URL:         "https://bad.example/login",
		Fingerprint: "fp-1",
		RiskScore:   &score,
		Severity:    model.SeverityCritical,
		ComputedAt:  time.Now().UTC(),
	}
}

func TestDeliverFirstAttempt(t *testing.T) {
	t.Parallel()
	var got model.Verdict
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	d := New(testConfig(), nil, st, &testutil.DummyLogger{})

	if err := d.Deliver(context.Background(), srv.URL, verdictFor("req-1")); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got.RequestID != "req-1" || got.Severity != model.SeverityCritical {
		t.Errorf("delivered payload = %+v", got)
	}

	ds, err := st.GetDelivery(context.Background(), "req-1")
	if err != nil || ds == nil {
		t.Fatalf("GetDelivery: %v, %v", ds, err)
	}
	if ds.State != model.DeliveryDelivered || ds.Attempts != 1 {
		t.Errorf("delivery state = %+v", ds)
	}
}

func TestDeliverRetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	d := New(testConfig(), nil, st, &testutil.DummyLogger{})

	if err := d.Deliver(context.Background(), srv.URL, verdictFor("req-2")); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}

	ds, _ := st.GetDelivery(context.Background(), "req-2")
	if ds.State != model.DeliveryDelivered || ds.Attempts != 3 {
		t.Errorf("delivery state = %+v", ds)
	}
}

func TestDeliverExhausted(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	d := New(testConfig(), nil, st, &testutil.DummyLogger{})

	err := d.Deliver(context.Background(), srv.URL, verdictFor("req-3"))
	if err == nil {
		t.Fatal("Deliver should fail when every attempt is rejected")
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}

	ds, _ := st.GetDelivery(context.Background(), "req-3")
	if ds.State != model.DeliveryExhausted {
		t.Errorf("state = %s, want exhausted", ds.State)
	}
	if ds.LastError == "" {
		t.Error("LastError empty after exhaustion")
	}
}

func TestDeliverContextCanceledStopsRetrying(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BaseDelay = 5 * time.Second
	st := store.NewMemoryStore()
	d := New(cfg, nil, st, &testutil.DummyLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if err := d.Deliver(ctx, srv.URL, verdictFor("req-4")); err == nil {
		t.Fatal("Deliver should fail on canceled context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Deliver blocked %v after cancel", elapsed)
	}
}
