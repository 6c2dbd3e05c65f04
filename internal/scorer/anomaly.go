package scorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/webguardai/webguard/internal/model"
)

// AnomalyScorer measures how far the URL and HTTP exchange deviate from a
// benign-site baseline. Each deviation is a cheap boolean check; the score
// is the deviation ratio. It catches oddities the rule engine has no
// explicit rule for, at a lower confidence.
type AnomalyScorer struct {
	timeout time.Duration
}

func NewAnomalyScorer(timeout time.Duration) *AnomalyScorer {
	return &AnomalyScorer{timeout: timeout}
}

func (s *AnomalyScorer) Name() string { return "anomaly" }

func (s *AnomalyScorer) Needs() []string {
	return []string{model.FeatureURL, model.FeatureMetadata}
}

func (s *AnomalyScorer) Timeout() time.Duration { return s.timeout }

func (s *AnomalyScorer) Score(_ context.Context, features model.FeatureSet) (*model.PartialScore, error) {
	uf, ok := features[model.FeatureURL].(*model.URLFeatures)
	if !ok {
		return nil, fmt.Errorf("url features have unexpected type %T", features[model.FeatureURL])
	}
	mf, ok := features[model.FeatureMetadata].(*model.MetadataFeatures)
	if !ok {
		return nil, fmt.Errorf("metadata features have unexpected type %T", features[model.FeatureMetadata])
	}

	checks := []struct {
		name     string
		deviates bool
	}{
		{"long url", uf.Length > 75},
		{"deep subdomains", uf.SubdomainCount > 2},
		{"punycode host", uf.Punycode},
		{"userinfo in url", uf.HasUserinfo},
		{"hyphenated host", uf.HyphenCount > 3},
		{"cross-host redirect", mf.CrossHostHop},
		{"meta refresh", mf.MetaRefresh},
		{"missing title", mf.MissingTitle},
		{"tiny body", mf.BodySizeBytes > 0 && mf.BodySizeBytes < 512},
	}

	var fired []string
	for _, c := range checks {
		if c.deviates {
			fired = append(fired, c.name)
		}
	}

	return &model.PartialScore{
		Score:      float64(len(fired)) / float64(len(checks)),
		Confidence: 0.6,
		Rationale:  fmt.Sprintf("%d/%d baseline deviations: %s", len(fired), len(checks), strings.Join(fired, ", ")),
	}, nil
}
