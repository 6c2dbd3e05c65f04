package app

import (
	"time"

	"github.com/webguardai/webguard/internal/utils"
)

// Config holds orchestrator-level settings. Component-level tuning lives in
// each component's own Config.
type Config struct {
	// MaxWorkers is the number of concurrent pipeline executions.
	MaxWorkers int

	// QueueSize bounds the pending-job queue. A full queue rejects
	// submissions with ErrBackpressure instead of buffering unboundedly.
	QueueSize int

	// JobTimeout bounds one full pipeline execution, fetch through scoring.
	JobTimeout time.Duration

	// CacheTTL is how long a persisted verdict short-circuits repeat
	// submissions for the same URL fingerprint. Zero disables caching.
	CacheTTL time.Duration

	// Canonical controls URL canonicalization for fingerprinting.
	Canonical utils.CanonicalizeOptions
}

// DefaultConfig returns standard orchestrator settings.
func DefaultConfig() Config {
	return Config{
		MaxWorkers: 8,
		QueueSize:  64,
		JobTimeout: 2 * time.Minute,
		CacheTTL:   15 * time.Minute,
		Canonical:  utils.DefaultCanonicalizeOptions(),
	}
}
