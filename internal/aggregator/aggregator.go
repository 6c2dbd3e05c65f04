// Package aggregator fuses the scoring ensemble's partial scores into a
// single risk score and severity tier.
package aggregator

import (
	"fmt"
	"strings"

	"github.com/webguardai/webguard/internal/model"
)

// Config holds the fusion thresholds. Defaults implement the standard
// tiering; deployments tune them rather than patching code.
type Config struct {
	// OverrideConfidence and OverrideScore trigger the single-scorer
	// override: a partial with Confidence >= OverrideConfidence and
	// Score > OverrideScore forces CRITICAL regardless of the fused score.
	OverrideConfidence float64
	OverrideScore      float64

	// Tier boundaries on the fused score. Below MediumThreshold is LOW;
	// at or above CriticalThreshold is CRITICAL.
	MediumThreshold   float64
	HighThreshold     float64
	CriticalThreshold float64
}

// DefaultConfig returns the standard fusion thresholds.
func DefaultConfig() Config {
	return Config{
		OverrideConfidence: 1.0,
		OverrideScore:      0.9,
		MediumThreshold:    0.25,
		HighThreshold:      0.5,
		CriticalThreshold:  0.8,
	}
}

// Result is the fused outcome. RiskScore is nil when every scorer failed.
type Result struct {
	RiskScore  *float64
	Severity   model.Severity
	Reason     string
	Overridden bool
}

// Aggregator computes confidence-weighted fusion over partial scores.
type Aggregator struct {
	cfg Config
}

func New(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate fuses the partial scores: the risk score is the
// confidence-weighted mean over the successful partials, the severity comes
// from fixed thresholds, and a single high-confidence high-score partial
// overrides the tier to CRITICAL. Error-marker partials are excluded from
// the mean; if every partial is an error the result is FAILED with no score.
func (a *Aggregator) Aggregate(partials []model.PartialScore) Result {
	var (
		weightedSum float64
		weightTotal float64
		valid       int
		failed      []string
		overrideBy  string
	)

	for _, ps := range partials {
		if ps.Failed() {
			failed = append(failed, ps.ScorerName)
			continue
		}
		valid++
		weightedSum += ps.Score * ps.Confidence
		weightTotal += ps.Confidence
		if ps.Confidence >= a.cfg.OverrideConfidence && ps.Score > a.cfg.OverrideScore {
			overrideBy = ps.ScorerName
		}
	}

	if valid == 0 {
		return Result{
			Severity: model.SeverityFailed,
			Reason:   "all scorers failed: " + strings.Join(failed, ", "),
		}
	}
	// Valid partials with zero confidence leave the weighted mean undefined.
	if weightTotal == 0 {
		return Result{
			Severity: model.SeverityFailed,
			Reason:   "no scorer reported confidence",
		}
	}

	score := weightedSum / weightTotal
	res := Result{RiskScore: &score, Severity: a.severityFor(score)}

	if overrideBy != "" && res.Severity != model.SeverityCritical {
		res.Severity = model.SeverityCritical
		res.Overridden = true
		res.Reason = fmt.Sprintf("override by %s at full confidence", overrideBy)
	}
	return res
}

func (a *Aggregator) severityFor(score float64) model.Severity {
	switch {
	case score < a.cfg.MediumThreshold:
		return model.SeverityLow
	case score < a.cfg.HighThreshold:
		return model.SeverityMedium
	case score < a.cfg.CriticalThreshold:
		return model.SeverityHigh
	default:
		return model.SeverityCritical
	}
}
