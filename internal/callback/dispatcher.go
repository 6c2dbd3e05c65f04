// Package callback delivers completed verdicts to consumer-supplied webhook
// URLs. Delivery is at-least-once with bounded retries; the retry state is
// persisted through the ResultStore so a durable deployment can report on
// exhausted deliveries after a restart.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/model"
)

// Config tunes delivery retries.
type Config struct {
	// MaxAttempts bounds POSTs per verdict before the delivery is marked
	// exhausted.
	MaxAttempts int

	// BaseDelay is the first backoff delay; it doubles per attempt.
	BaseDelay time.Duration

	// RequestTimeout bounds a single callback POST.
	RequestTimeout time.Duration
}

// DefaultConfig returns standard delivery settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    5,
		BaseDelay:      time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

// Dispatcher POSTs verdicts to callback URLs.
type Dispatcher struct {
	cfg    Config
	client *http.Client
	store  interfaces.ResultStore
	logger interfaces.Logger
}

// New creates a Dispatcher. A nil client gets a default one bound to the
// configured request timeout.
func New(cfg Config, client *http.Client, store interfaces.ResultStore, logger interfaces.Logger) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Dispatcher{
		cfg:    cfg,
		client: client,
		store:  store,
		logger: logger.With(interfaces.Field{Key: "component", Value: "callback"}),
	}
}

// Deliver POSTs the verdict to callbackURL, retrying with exponential
// backoff until a 2xx lands or attempts run out. Every state transition is
// persisted before the next attempt. Returns nil once delivered; the final
// error when exhausted.
func (d *Dispatcher) Deliver(ctx context.Context, callbackURL string, v *model.Verdict) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}

	state := &model.DeliveryState{
		RequestID:   v.RequestID,
		CallbackURL: callbackURL,
		State:       model.DeliveryPending,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := d.store.PutDelivery(ctx, state); err != nil {
		return fmt.Errorf("persist delivery state: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		state.Attempts = attempt
		lastErr = d.post(ctx, callbackURL, body)
		if lastErr == nil {
			state.State = model.DeliveryDelivered
			state.LastError = ""
			state.UpdatedAt = time.Now().UTC()
			if err := d.store.UpdateDelivery(ctx, state); err != nil {
				d.logger.Error("failed to persist delivered state",
					interfaces.Field{Key: "request_id", Value: v.RequestID},
					interfaces.Field{Key: "error", Value: err.Error()})
			}
			d.logger.Info("verdict delivered",
				interfaces.Field{Key: "request_id", Value: v.RequestID},
				interfaces.Field{Key: "attempts", Value: attempt})
			return nil
		}

		state.LastError = lastErr.Error()
		state.UpdatedAt = time.Now().UTC()
		if attempt < d.cfg.MaxAttempts {
			if err := d.store.UpdateDelivery(ctx, state); err != nil {
				d.logger.Error("failed to persist delivery attempt",
					interfaces.Field{Key: "request_id", Value: v.RequestID},
					interfaces.Field{Key: "error", Value: err.Error()})
			}
			delay := d.cfg.BaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return d.exhaust(ctx, state, ctx.Err())
			}
		}
	}
	return d.exhaust(ctx, state, lastErr)
}

func (d *Dispatcher) exhaust(ctx context.Context, state *model.DeliveryState, cause error) error {
	state.State = model.DeliveryExhausted
	if cause != nil {
		state.LastError = cause.Error()
	}
	state.UpdatedAt = time.Now().UTC()
	if err := d.store.UpdateDelivery(ctx, state); err != nil {
		d.logger.Error("failed to persist exhausted state",
			interfaces.Field{Key: "request_id", Value: state.RequestID},
			interfaces.Field{Key: "error", Value: err.Error()})
	}
	d.logger.Warn("callback delivery exhausted",
		interfaces.Field{Key: "request_id", Value: state.RequestID},
		interfaces.Field{Key: "callback_url", Value: state.CallbackURL},
		interfaces.Field{Key: "attempts", Value: state.Attempts})
	return fmt.Errorf("delivery exhausted after %d attempts: %w", state.Attempts, cause)
}

func (d *Dispatcher) post(ctx context.Context, callbackURL string, body []byte) error {
	reqCtx := ctx
	if d.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, d.cfg.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}
