package interfaces

import (
	"context"
	"time"

	"github.com/webguardai/webguard/internal/model"
)

// Extractor is one pluggable feature analyzer. Extractors must be
// side-effect-free transforms of the Document: same Document, same output.
// A failing extractor degrades downstream scoring but never aborts the
// pipeline; the orchestrator records the failure and carries on.
type Extractor interface {
	// Name is the stable key under which the extractor's payload appears
	// in the FeatureSet. Scorers declare their inputs by these names.
	Name() string

	// Timeout is the maximum execution time for one Extract call.
	// Zero means the registry default applies.
	Timeout() time.Duration

	// Extract produces this extractor's feature payload for the document.
	Extract(ctx context.Context, doc *model.Document) (any, error)
}

// Scorer is one member of the scoring ensemble. Scorers are independent and
// order-insensitive; statistical models, anomaly detectors and deterministic
// rule engines all produce the same PartialScore shape so the aggregator is
// agnostic to scorer kind.
type Scorer interface {
	// Name identifies the scorer in PartialScore output.
	Name() string

	// Needs lists the extractor names this scorer consumes. The registry
	// passes only those FeatureSet entries; a missing entry yields an
	// explicit "missing input" error PartialScore.
	Needs() []string

	// Timeout is the maximum execution time for one Score call.
	// Zero means the registry default applies.
	Timeout() time.Duration

	// Score evaluates the feature subset and returns a partial score.
	Score(ctx context.Context, features model.FeatureSet) (*model.PartialScore, error)
}
