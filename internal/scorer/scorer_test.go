package scorer

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/webguardai/webguard/internal/model"
	"github.com/webguardai/webguard/internal/testutil"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// ─── Registry ──────────────────────────────────────────────────────────

func TestScoreAllPreservesRegistrationOrder(t *testing.T) {
	t.Parallel()
	r := NewRegistry(&testutil.DummyLogger{},
		&testutil.DummyScorer{ScorerName: "first", ScoreValue: 0.1, Confidence: 1, Delay: 20 * time.Millisecond},
		&testutil.DummyScorer{ScorerName: "second", ScoreValue: 0.2, Confidence: 1},
	)

	out := r.ScoreAll(context.Background(), model.FeatureSet{})
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].ScorerName != "first" || out[1].ScorerName != "second" {
		t.Errorf("order = [%s, %s], want [first, second]", out[0].ScorerName, out[1].ScorerName)
	}
}

func TestScoreAllMissingInput(t *testing.T) {
	t.Parallel()
	r := NewRegistry(&testutil.DummyLogger{},
		&testutil.DummyScorer{ScorerName: "needy", Inputs: []string{"absent"}, ScoreValue: 0.9, Confidence: 1},
		&testutil.DummyScorer{ScorerName: "free", ScoreValue: 0.3, Confidence: 1},
	)

	out := r.ScoreAll(context.Background(), model.FeatureSet{"text": "x"})
	if !out[0].Failed() {
		t.Fatal("scorer with missing input should produce error marker")
	}
	if out[0].Error != "missing input: absent" {
		t.Errorf("Error = %q", out[0].Error)
	}
	if out[1].Failed() {
		t.Errorf("independent scorer failed: %v", out[1].Error)
	}
}

func TestScoreAllTimeout(t *testing.T) {
	t.Parallel()
	r := NewRegistry(&testutil.DummyLogger{},
		&testutil.DummyScorer{ScorerName: "slow", Delay: time.Second, Deadline: 20 * time.Millisecond},
		&testutil.DummyScorer{ScorerName: "fast", ScoreValue: 0.5, Confidence: 0.7},
	)

	start := time.Now()
	out := r.ScoreAll(context.Background(), model.FeatureSet{})
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("ScoreAll took %v, timeout not enforced", elapsed)
	}
	if !out[0].Failed() {
		t.Error("slow scorer should have timed out")
	}
	if out[1].Failed() || !almostEqual(out[1].Score, 0.5) {
		t.Errorf("fast scorer disturbed: %+v", out[1])
	}
}

// ─── Ensemble members ──────────────────────────────────────────────────

func phishingFeatures() model.FeatureSet {
	return model.FeatureSet{
		model.FeatureText: &model.TextFeatures{
			TextLength:        1500,
			SuspiciousMatches: []string{"verify.*account"},
			FormCount:         1,
			PasswordInputs:    1,
		},
		model.FeatureURL: &model.URLFeatures{
			Length:             90,
			ContainsIP:         true,
			SubdomainCount:     3,
			SuspiciousPatterns: []string{"bit.ly"},
		},
		model.FeatureMetadata: &model.MetadataFeatures{
			StatusCode:   200,
			CrossHostHop: true,
			MissingTitle: true,
		},
		model.FeatureImage: &model.ImageFeatures{
			LogoLikeCount: 1,
			TrackingCount: 1,
		},
	}
}

func benignFeatures() model.FeatureSet {
	return model.FeatureSet{
		model.FeatureText: &model.TextFeatures{TextLength: 5000, Title: "Blog"},
		model.FeatureURL: &model.URLFeatures{
			Length: 24, SubdomainCount: 1,
		},
		model.FeatureMetadata: &model.MetadataFeatures{StatusCode: 200, BodySizeBytes: 40000},
		model.FeatureImage:    &model.ImageFeatures{},
	}
}

func TestTextModelScorer(t *testing.T) {
	t.Parallel()
	s := NewTextModelScorer(0)

	ps, err := s.Score(context.Background(), phishingFeatures())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// one phrase (0.2) + password form (0.25)
	if !almostEqual(ps.Score, 0.45) {
		t.Errorf("phishing score = %v, want 0.45", ps.Score)
	}
	if !almostEqual(ps.Confidence, 0.9) {
		t.Errorf("confidence = %v, want 0.9 for long text", ps.Confidence)
	}

	ps, err = s.Score(context.Background(), benignFeatures())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if ps.Score != 0 {
		t.Errorf("benign score = %v, want 0", ps.Score)
	}
}

func TestTextModelScorerDeterministic(t *testing.T) {
	t.Parallel()
	s := NewTextModelScorer(0)
	a, _ := s.Score(context.Background(), phishingFeatures())
	b, _ := s.Score(context.Background(), phishingFeatures())
	if a.Score != b.Score || a.Confidence != b.Confidence {
		t.Errorf("same features gave different scores: %+v vs %+v", a, b)
	}
}

func TestAnomalyScorer(t *testing.T) {
	t.Parallel()
	s := NewAnomalyScorer(0)

	ps, err := s.Score(context.Background(), phishingFeatures())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// long url, deep subdomains, cross-host redirect, missing title = 4/9
	if !almostEqual(ps.Score, 4.0/9.0) {
		t.Errorf("score = %v, want 4/9", ps.Score)
	}
	if !almostEqual(ps.Confidence, 0.6) {
		t.Errorf("confidence = %v, want 0.6", ps.Confidence)
	}

	ps, err = s.Score(context.Background(), benignFeatures())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if ps.Score != 0 {
		t.Errorf("benign score = %v, want 0", ps.Score)
	}
}

func TestRuleScorer(t *testing.T) {
	t.Parallel()
	s := NewRuleScorer(0)

	ps, err := s.Score(context.Background(), phishingFeatures())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// 0.3 + 0.2 + 0.2 + 0.1 + 0.1 + 0.1 = 1.0 capped
	if !almostEqual(ps.Score, 1.0) {
		t.Errorf("score = %v, want 1.0", ps.Score)
	}
	if !almostEqual(ps.Confidence, 1.0) {
		t.Errorf("confidence = %v, want 1.0 with hard signals", ps.Confidence)
	}

	ps, err = s.Score(context.Background(), benignFeatures())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if ps.Score != 0 {
		t.Errorf("benign score = %v, want 0", ps.Score)
	}
	if !almostEqual(ps.Confidence, 0.8) {
		t.Errorf("benign confidence = %v, want 0.8", ps.Confidence)
	}
}

func TestRuleScorerSoftSignalsOnly(t *testing.T) {
	t.Parallel()
	fs := benignFeatures()
	fs[model.FeatureURL] = &model.URLFeatures{SuspiciousPatterns: []string{"bit.ly"}, SubdomainCount: 3}

	ps, err := NewRuleScorer(0).Score(context.Background(), fs)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !almostEqual(ps.Score, 0.3) {
		t.Errorf("score = %v, want 0.3", ps.Score)
	}
	if !almostEqual(ps.Confidence, 0.8) {
		t.Errorf("confidence = %v, want 0.8 without hard signals", ps.Confidence)
	}
}

func TestEnsembleThroughRegistry(t *testing.T) {
	t.Parallel()
	r := NewRegistry(&testutil.DummyLogger{},
		NewTextModelScorer(0),
		NewAnomalyScorer(0),
		NewRuleScorer(0),
	)

	out := r.ScoreAll(context.Background(), phishingFeatures())
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	for _, ps := range out {
		if ps.Failed() {
			t.Errorf("scorer %s failed: %s", ps.ScorerName, ps.Error)
		}
	}
	if out[0].ScorerName != "text_model" || out[1].ScorerName != "anomaly" || out[2].ScorerName != "rules" {
		t.Errorf("unexpected order: %s, %s, %s", out[0].ScorerName, out[1].ScorerName, out[2].ScorerName)
	}
}

func TestScoreAllDroppedExtractorDegradesGracefully(t *testing.T) {
	t.Parallel()
	r := NewRegistry(&testutil.DummyLogger{},
		NewTextModelScorer(0),
		NewAnomalyScorer(0),
		NewRuleScorer(0),
	)

	fs := phishingFeatures()
	delete(fs, model.FeatureImage)

	out := r.ScoreAll(context.Background(), fs)
	if out[0].Failed() || out[1].Failed() {
		t.Error("scorers not needing images should still run")
	}
	if !out[2].Failed() || out[2].Error != "missing input: image" {
		t.Errorf("rules scorer: %+v, want missing input marker", out[2])
	}
}
