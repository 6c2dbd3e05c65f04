// Package scorer hosts the scoring ensemble: independent analyzers that each
// turn extracted features into a risk estimate with a confidence. The
// registry runs them concurrently and settles every branch, so the
// aggregator always sees one PartialScore per registered scorer.
package scorer

import (
	"context"
	"sync"
	"time"

	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/model"
)

// DefaultTimeout applies to scorers that report a zero Timeout.
const DefaultTimeout = 5 * time.Second

// Registry holds the scorer ensemble.
type Registry struct {
	scorers []interfaces.Scorer
	logger  interfaces.Logger
}

// NewRegistry creates a Registry with the given scorers. Registration order
// fixes the PartialScore order in verdicts.
func NewRegistry(logger interfaces.Logger, scorers ...interfaces.Scorer) *Registry {
	return &Registry{
		scorers: scorers,
		logger:  logger.With(interfaces.Field{Key: "component", Value: "scorer"}),
	}
}

// Register appends a scorer. Not safe to call after ScoreAll starts.
func (r *Registry) Register(s interfaces.Scorer) {
	r.scorers = append(r.scorers, s)
}

// Names returns the registered scorer names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scorers))
	for _, s := range r.scorers {
		names = append(names, s.Name())
	}
	return names
}

// ScoreAll runs every scorer concurrently against the feature set and
// returns exactly one PartialScore per scorer, in registration order.
// A scorer whose required inputs are missing, that returns an error or
// that overruns its timeout yields an error-marker PartialScore.
func (r *Registry) ScoreAll(ctx context.Context, features model.FeatureSet) []model.PartialScore {
	out := make([]model.PartialScore, len(r.scorers))

	var wg sync.WaitGroup
	for i, s := range r.scorers {
		wg.Add(1)
		go func(i int, s interfaces.Scorer) {
			defer wg.Done()
			out[i] = r.runOne(ctx, s, features)
		}(i, s)
	}
	wg.Wait()

	for _, ps := range out {
		if ps.Failed() {
			r.logger.Warn("scorer failed",
				interfaces.Field{Key: "scorer", Value: ps.ScorerName},
				interfaces.Field{Key: "error", Value: ps.Error})
		}
	}
	return out
}

func (r *Registry) runOne(ctx context.Context, s interfaces.Scorer, features model.FeatureSet) model.PartialScore {
	subset, missing := features.Subset(s.Needs())
	if missing != "" {
		return model.PartialScore{ScorerName: s.Name(), Error: "missing input: " + missing}
	}

	timeout := s.Timeout()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	branchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		ps  *model.PartialScore
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		ps, err := s.Score(branchCtx, subset)
		done <- outcome{ps, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return model.PartialScore{ScorerName: s.Name(), Error: o.err.Error()}
		}
		ps := *o.ps
		ps.ScorerName = s.Name()
		return ps
	case <-branchCtx.Done():
		return model.PartialScore{ScorerName: s.Name(), Error: branchCtx.Err().Error()}
	}
}
