package scorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/webguardai/webguard/internal/model"
)

// Rule weights. The sum is capped at 1.0.
const (
	weightSuspiciousText = 0.3
	weightIPInURL        = 0.2
	weightSuspiciousURL  = 0.2
	weightDeepSubdomains = 0.1
	weightTrackingImage  = 0.1
	weightLogoImage      = 0.1
)

// RuleScorer is the deterministic rule engine. Each rule adds a fixed weight
// when it fires; the rationale names every fired rule so verdicts stay
// explainable.
type RuleScorer struct {
	timeout time.Duration
}

func NewRuleScorer(timeout time.Duration) *RuleScorer {
	return &RuleScorer{timeout: timeout}
}

func (s *RuleScorer) Name() string { return "rules" }

func (s *RuleScorer) Needs() []string {
	return []string{model.FeatureText, model.FeatureURL, model.FeatureImage}
}

func (s *RuleScorer) Timeout() time.Duration { return s.timeout }

func (s *RuleScorer) Score(_ context.Context, features model.FeatureSet) (*model.PartialScore, error) {
	tf, ok := features[model.FeatureText].(*model.TextFeatures)
	if !ok {
		return nil, fmt.Errorf("text features have unexpected type %T", features[model.FeatureText])
	}
	uf, ok := features[model.FeatureURL].(*model.URLFeatures)
	if !ok {
		return nil, fmt.Errorf("url features have unexpected type %T", features[model.FeatureURL])
	}
	imf, ok := features[model.FeatureImage].(*model.ImageFeatures)
	if !ok {
		return nil, fmt.Errorf("image features have unexpected type %T", features[model.FeatureImage])
	}

	score := 0.0
	var fired []string
	hardSignal := false

	if len(tf.SuspiciousMatches) > 0 {
		score += weightSuspiciousText
		fired = append(fired, "suspicious text")
		hardSignal = true
	}
	if uf.ContainsIP {
		score += weightIPInURL
		fired = append(fired, "ip in url")
		hardSignal = true
	}
	if len(uf.SuspiciousPatterns) > 0 {
		score += weightSuspiciousURL
		fired = append(fired, "suspicious url pattern")
	}
	if uf.SubdomainCount > 2 {
		score += weightDeepSubdomains
		fired = append(fired, "deep subdomains")
	}
	if imf.TrackingCount > 0 {
		score += weightTrackingImage
		fired = append(fired, "tracking image")
	}
	if imf.LogoLikeCount > 0 {
		score += weightLogoImage
		fired = append(fired, "brand logo image")
	}
	if score > 1 {
		score = 1
	}

	// Keyword and IP rules are precise enough to back an override; the
	// structural rules alone are not.
	confidence := 0.8
	if hardSignal {
		confidence = 1.0
	}

	rationale := "no rules fired"
	if len(fired) > 0 {
		rationale = "fired: " + strings.Join(fired, ", ")
	}

	return &model.PartialScore{
		Score:      score,
		Confidence: confidence,
		Rationale:  rationale,
	}, nil
}
