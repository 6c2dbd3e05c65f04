package app

import (
	"context"
	"time"

	"github.com/webguardai/webguard/internal/model"
)

type JobEventType string

const (
	JobEventStatus JobEventType = "status"
	JobEventResult JobEventType = "result"
)

// JobEvent is one entry in a job's event stream, consumed by the websocket
// endpoint.
type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For the terminal result
	Verdict *model.Verdict `json:"verdict,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed || s == JobCanceled
}

// attachedRequest is one caller waiting on this job's verdict.
type attachedRequest struct {
	requestID   string
	callbackURL string
}

// Job is one pipeline execution. Several analysis requests fan in to the
// same Job when they share a URL fingerprint while it is in flight.
type Job struct {
	ID          string        `json:"id"`
	URL         string        `json:"url"` // canonical form
	Fingerprint string        `json:"fingerprint"`
	Status      JobStatus     `json:"status"`
	Error       string        `json:"error,omitempty"`
	RequestIDs  []string      `json:"request_ids"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     time.Time     `json:"ended_at,omitempty"`
	Events      chan JobEvent `json:"-"`

	// Verdict for the first attached request; per-request clones are in
	// the store.
	Verdict *model.Verdict `json:"verdict,omitempty"`

	attached []attachedRequest
	ctx      context.Context
}

// snapshot returns a copy safe to hand outside the orchestrator lock. The
// Events channel is deliberately excluded; use JobEvents for streaming.
func (j *Job) snapshot() *Job {
	cp := *j
	cp.Events = nil
	cp.RequestIDs = append([]string(nil), j.RequestIDs...)
	cp.attached = nil
	return &cp
}
