package model

import "time"

// AnalysisRequest is one caller-submitted unit of work, created on API
// admission and immutable afterwards. Several requests may fan in to a
// single pipeline execution when they share a URL fingerprint.
type AnalysisRequest struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	CallbackURL string    `json:"callback_url,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	Priority    int       `json:"priority,omitempty"`
}
