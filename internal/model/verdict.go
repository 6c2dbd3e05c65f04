package model

import "time"

// Severity is the tier assigned to a completed analysis. The four scored
// tiers come from fixed risk-score thresholds; BLOCKED and UNREACHABLE mark
// jobs whose target could not be fetched (robots disallow, 4xx, retries
// exhausted) and carry no score; FAILED marks an analysis where every
// scorer errored.
type Severity string

const (
	SeverityLow         Severity = "LOW"
	SeverityMedium      Severity = "MEDIUM"
	SeverityHigh        Severity = "HIGH"
	SeverityCritical    Severity = "CRITICAL"
	SeverityBlocked     Severity = "BLOCKED"
	SeverityUnreachable Severity = "UNREACHABLE"
	SeverityFailed      Severity = "FAILED"
)

// PartialScore is one scorer's independent contribution to the ensemble
// decision. A scorer that fails produces an explicit Error marker rather
// than a silent zero, so the aggregator can discard it deliberately.
type PartialScore struct {
	ScorerName string  `json:"scorer_name"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Failed reports whether this partial score is an error marker.
func (p PartialScore) Failed() bool { return p.Error != "" }

// Verdict is the final, immutable risk assessment for one analysis request.
// RiskScore is nil for BLOCKED, UNREACHABLE and FAILED verdicts. Partial
// scores appear in fixed scorer registration order, independent of
// completion timing.
type Verdict struct {
	RequestID     string         `json:"request_id"`
	URL           string         `json:"url"`
	Fingerprint   string         `json:"fingerprint"`
	RiskScore     *float64       `json:"risk_score,omitempty"`
	Severity      Severity       `json:"severity"`
	Reason        string         `json:"reason,omitempty"`
	PartialScores []PartialScore `json:"partial_scores,omitempty"`
	ComputedAt    time.Time      `json:"computed_at"`
}

// Scored reports whether the verdict carries a numeric risk score.
func (v *Verdict) Scored() bool { return v.RiskScore != nil }

// DeliveryStatus tracks the callback retry state machine.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryExhausted DeliveryStatus = "exhausted"
)

// DeliveryState is the persisted retry state for one verdict callback.
type DeliveryState struct {
	RequestID   string         `json:"request_id"`
	CallbackURL string         `json:"callback_url"`
	State       DeliveryStatus `json:"state"`
	Attempts    int            `json:"attempts"`
	LastError   string         `json:"last_error,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
