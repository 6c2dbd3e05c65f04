package scorer

import (
	"context"
	"fmt"
	"time"

	"github.com/webguardai/webguard/internal/model"
)

// TextModelScorer estimates phishing likelihood from page language and form
// structure. It is a deterministic stand-in for a learned text classifier:
// same features, same score.
type TextModelScorer struct {
	timeout time.Duration
}

func NewTextModelScorer(timeout time.Duration) *TextModelScorer {
	return &TextModelScorer{timeout: timeout}
}

func (s *TextModelScorer) Name() string { return "text_model" }

func (s *TextModelScorer) Needs() []string { return []string{model.FeatureText} }

func (s *TextModelScorer) Timeout() time.Duration { return s.timeout }

func (s *TextModelScorer) Score(_ context.Context, features model.FeatureSet) (*model.PartialScore, error) {
	tf, ok := features[model.FeatureText].(*model.TextFeatures)
	if !ok {
		return nil, fmt.Errorf("text features have unexpected type %T", features[model.FeatureText])
	}

	score := 0.0
	for range tf.SuspiciousMatches {
		score += 0.2
	}
	if score > 0.6 {
		score = 0.6
	}
	if tf.FormCount > 0 && tf.PasswordInputs > 0 {
		score += 0.25
	}
	if tf.ExternalLinks > 10 {
		score += 0.05
	}
	if score > 1 {
		score = 1
	}

	// Short pages give the lexical model little to go on.
	confidence := 0.9
	switch {
	case tf.TextLength < 200:
		confidence = 0.4
	case tf.TextLength < 1000:
		confidence = 0.7
	}

	return &model.PartialScore{
		Score:      score,
		Confidence: confidence,
		Rationale: fmt.Sprintf("%d suspicious phrases, %d forms, %d password inputs",
			len(tf.SuspiciousMatches), tf.FormCount, tf.PasswordInputs),
	}, nil
}
