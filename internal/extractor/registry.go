// Package extractor turns fetched documents into named feature payloads.
// Extractors run concurrently under individual timeouts; one slow or broken
// extractor costs only its own entry in the FeatureSet.
package extractor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/model"
)

// DefaultTimeout applies to extractors that report a zero Timeout.
const DefaultTimeout = 5 * time.Second

// Registry holds the extractor set and fans Extract calls out over it.
type Registry struct {
	extractors []interfaces.Extractor
	logger     interfaces.Logger
}

// NewRegistry creates a Registry with the given extractors.
func NewRegistry(logger interfaces.Logger, extractors ...interfaces.Extractor) *Registry {
	return &Registry{
		extractors: extractors,
		logger:     logger.With(interfaces.Field{Key: "component", Value: "extractor"}),
	}
}

// Register appends an extractor. Not safe to call after ExtractAll starts.
func (r *Registry) Register(e interfaces.Extractor) {
	r.extractors = append(r.extractors, e)
}

// Names returns the registered extractor names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.extractors))
	for _, e := range r.extractors {
		names = append(names, e.Name())
	}
	return names
}

// ExtractAll runs every extractor concurrently against doc and collects the
// successful payloads into a FeatureSet. Failures and timeouts are returned
// per extractor name; they never abort the other branches.
func (r *Registry) ExtractAll(ctx context.Context, doc *model.Document) (model.FeatureSet, map[string]string) {
	type branch struct {
		name    string
		payload any
		err     error
	}

	results := make(chan branch, len(r.extractors))
	var wg sync.WaitGroup
	for _, e := range r.extractors {
		wg.Add(1)
		go func(e interfaces.Extractor) {
			defer wg.Done()
			payload, err := r.runOne(ctx, e, doc)
			results <- branch{name: e.Name(), payload: payload, err: err}
		}(e)
	}
	wg.Wait()
	close(results)

	features := make(model.FeatureSet, len(r.extractors))
	failures := make(map[string]string)
	for b := range results {
		if b.err != nil {
			failures[b.name] = b.err.Error()
			r.logger.Warn("extractor failed",
				interfaces.Field{Key: "extractor", Value: b.name},
				interfaces.Field{Key: "url", Value: doc.URL},
				interfaces.Field{Key: "error", Value: b.err.Error()})
			continue
		}
		features[b.name] = b.payload
	}
	return features, failures
}

// runOne executes a single extractor under its own timeout. The inner
// goroutine is abandoned on timeout; extractors are pure transforms so an
// abandoned one holds no resources worth reclaiming.
func (r *Registry) runOne(ctx context.Context, e interfaces.Extractor, doc *model.Document) (any, error) {
	timeout := e.Timeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	branchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		payload any
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		payload, err := e.Extract(branchCtx, doc)
		done <- outcome{payload, err}
	}()

	select {
	case o := <-done:
		return o.payload, o.err
	case <-branchCtx.Done():
		return nil, fmt.Errorf("extractor %s: %w", e.Name(), branchCtx.Err())
	}
}
