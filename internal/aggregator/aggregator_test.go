package aggregator

import (
	"math"
	"testing"

	"github.com/webguardai/webguard/internal/model"
)

func ps(name string, score, confidence float64) model.PartialScore {
	return model.PartialScore{ScorerName: name, Score: score, Confidence: confidence}
}

func failedPS(name string) model.PartialScore {
	return model.PartialScore{ScorerName: name, Error: "boom"}
}

func TestAggregateWeightedMean(t *testing.T) {
	t.Parallel()
	res := New(DefaultConfig()).Aggregate([]model.PartialScore{
		ps("a", 0.9, 0.9),
		ps("b", 0.1, 0.5),
	})
	if res.RiskScore == nil {
		t.Fatal("RiskScore = nil")
	}
	// (0.9*0.9 + 0.1*0.5) / 1.4 = 0.86/1.4
	want := 0.86 / 1.4
	if math.Abs(*res.RiskScore-want) > 1e-9 {
		t.Errorf("RiskScore = %v, want %v", *res.RiskScore, want)
	}
	if res.Severity != model.SeverityHigh {
		t.Errorf("Severity = %s, want HIGH", res.Severity)
	}
	if res.Overridden {
		t.Error("Overridden = true without an override trigger")
	}
}

func TestAggregateOverride(t *testing.T) {
	t.Parallel()
	res := New(DefaultConfig()).Aggregate([]model.PartialScore{
		ps("rules", 0.95, 1.0),
		ps("mild", 0.05, 0.9),
	})
	if res.Severity != model.SeverityCritical {
		t.Errorf("Severity = %s, want CRITICAL via override", res.Severity)
	}
	if !res.Overridden {
		t.Error("Overridden = false")
	}
	if res.RiskScore == nil {
		t.Error("override must keep the fused score")
	}
}

func TestAggregateNoOverrideBelowBar(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		partial model.PartialScore
	}{
		{"score at bar", ps("rules", 0.9, 1.0)},
		{"confidence below bar", ps("rules", 0.95, 0.99)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := New(DefaultConfig()).Aggregate([]model.PartialScore{
				tc.partial,
				ps("mild", 0.0, 1.0),
			})
			if res.Overridden {
				t.Errorf("override fired for %+v", tc.partial)
			}
		})
	}
}

func TestAggregateAllFailed(t *testing.T) {
	t.Parallel()
	res := New(DefaultConfig()).Aggregate([]model.PartialScore{
		failedPS("a"), failedPS("b"), failedPS("c"),
	})
	if res.Severity != model.SeverityFailed {
		t.Errorf("Severity = %s, want FAILED", res.Severity)
	}
	if res.RiskScore != nil {
		t.Errorf("RiskScore = %v, want nil", *res.RiskScore)
	}
	if res.Reason == "" {
		t.Error("Reason empty for FAILED verdict")
	}
}

func TestAggregateZeroConfidencePartials(t *testing.T) {
	t.Parallel()
	res := New(DefaultConfig()).Aggregate([]model.PartialScore{
		ps("a", 0.7, 0.0),
		ps("b", 0.2, 0.0),
	})
	if res.Severity != model.SeverityFailed {
		t.Errorf("Severity = %s, want FAILED", res.Severity)
	}
	if res.RiskScore != nil {
		t.Errorf("RiskScore = %v, want nil", *res.RiskScore)
	}
	// Scorers succeeded; the reason must not claim they failed.
	if res.Reason != "no scorer reported confidence" {
		t.Errorf("Reason = %q", res.Reason)
	}
}

func TestAggregateIgnoresFailedPartials(t *testing.T) {
	t.Parallel()
	res := New(DefaultConfig()).Aggregate([]model.PartialScore{
		ps("good", 0.4, 1.0),
		failedPS("broken"),
	})
	if res.RiskScore == nil || math.Abs(*res.RiskScore-0.4) > 1e-9 {
		t.Fatalf("RiskScore = %v, want 0.4", res.RiskScore)
	}
	if res.Severity != model.SeverityMedium {
		t.Errorf("Severity = %s, want MEDIUM", res.Severity)
	}
}

func TestSeverityThresholds(t *testing.T) {
	t.Parallel()
	cases := []struct {
		score float64
		want  model.Severity
	}{
		{0.0, model.SeverityLow},
		{0.24999, model.SeverityLow},
		{0.25, model.SeverityMedium},
		{0.49999, model.SeverityMedium},
		{0.5, model.SeverityHigh},
		{0.79999, model.SeverityHigh},
		{0.8, model.SeverityCritical},
		{1.0, model.SeverityCritical},
	}
	agg := New(DefaultConfig())
	for _, tc := range cases {
		res := agg.Aggregate([]model.PartialScore{ps("only", tc.score, 1.0)})
		if res.Severity != tc.want {
			t.Errorf("score %v: Severity = %s, want %s", tc.score, res.Severity, tc.want)
		}
	}
}
