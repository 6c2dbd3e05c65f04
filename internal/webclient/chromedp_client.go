package webclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/model"
)

// ChromeDPClient renders pages in a headless browser so DOM content built
// by scripts is visible to the extractors. One browser process is shared;
// each Do opens a fresh tab.
type ChromeDPClient struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	idleAfter   time.Duration
	logger      interfaces.Logger
}

// NewChromeDPClient creates a chromedp-backed WebClient.
func NewChromeDPClient(cfg Config, logger interfaces.Logger) (*ChromeDPClient, error) {
	idleAfter := cfg.IdleAfter
	if idleAfter <= 0 {
		idleAfter = 2 * time.Second
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if cfg.Headless != nil && !*cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeDPClient{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		idleAfter:   idleAfter,
		logger:      logger.With(interfaces.Field{Key: "backend", Value: "chromedp"}),
	}, nil
}

// waitNetworkIdle signals once no network request has been in flight for
// idleAfter. Without this, script-driven pages are snapshotted half-loaded.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var (
		activeReqs int32
		timerMutex sync.Mutex
		timer      *time.Timer
		once       sync.Once
	)

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}
	startTimer()

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	return idleChan
}

// Do navigates a fresh tab to the request URL, waits for the network to go
// idle and returns the rendered document. Only GET semantics are supported.
func (cdc *ChromeDPClient) Do(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}

	tabCtx, cancel := chromedp.NewContext(cdc.allocCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		docStatus int64
		docURL    atomic.Value
		hdrMu     sync.Mutex
		headers   = http.Header{}
	)

	idleCh := waitNetworkIdle(tabCtx, cdc.idleAfter)

	chromedp.ListenTarget(tabCtx, func(ev any) {
		r, ok := ev.(*network.EventResponseReceived)
		if !ok || r.Type != network.ResourceTypeDocument || r.Response == nil {
			return
		}
		atomic.StoreInt64(&docStatus, r.Response.Status)
		docURL.Store(r.Response.URL)
		hdrMu.Lock()
		for k, v := range r.Response.Headers {
			if s, ok := v.(string); ok {
				headers.Set(k, s)
			}
		}
		hdrMu.Unlock()
	})

	if err := chromedp.Run(tabCtx, network.Enable(), chromedp.Navigate(req.URL)); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", req.URL, err)
	}

	select {
	case <-idleCh:
	case <-tabCtx.Done():
		return nil, tabCtx.Err()
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, fmt.Errorf("capture html: %w", err)
	}

	status := int(atomic.LoadInt64(&docStatus))
	if status == 0 {
		status = http.StatusOK
	}
	finalURL, _ := docURL.Load().(string)
	if finalURL == "" {
		finalURL = req.URL
	}

	hdrMu.Lock()
	respHeaders := headers.Clone()
	hdrMu.Unlock()

	return &model.Response{
		Request:    req,
		FinalURL:   finalURL,
		Body:       []byte(html),
		Headers:    respHeaders,
		StatusCode: status,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// Close shuts down the shared browser process.
func (cdc *ChromeDPClient) Close() error {
	cdc.allocCancel()
	return nil
}
