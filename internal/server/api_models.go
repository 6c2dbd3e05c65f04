package server

// AnalyzeRequest is the payload for submitting one URL for analysis.
type AnalyzeRequest struct {
	URL         string `json:"url" example:"https://suspicious.example/login"`
	CallbackURL string `json:"callback_url,omitempty" example:"https://consumer.example/hooks/webguard"`
}

// AnalyzeResponse acknowledges an admitted analysis request.
type AnalyzeResponse struct {
	RequestID    string `json:"request_id" example:"4e9c2a7e-6f1b-4b31-9a70-1d38a2b5c9f0"`
	JobID        string `json:"job_id,omitempty" example:"b7f1d0d2-93d4-4a6e-8f3c-2d9a1e5b7c40"`
	Status       string `json:"status" example:"pending"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
	Cached       bool   `json:"cached,omitempty"`
}

// BatchAnalyzeRequest submits several URLs in one call. The optional
// callback receives the verdict of every admitted URL.
type BatchAnalyzeRequest struct {
	URLs        []string `json:"urls"`
	CallbackURL string   `json:"callback_url,omitempty" example:"https://consumer.example/hooks/webguard"`
}

// BatchAnalyzeError reports one URL rejected on admission.
type BatchAnalyzeError struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// BatchAnalyzeResponse lists the request ids of admitted URLs in batch
// order, alongside any per-URL admission errors.
type BatchAnalyzeResponse struct {
	RequestIDs []string            `json:"request_ids"`
	Errors     []BatchAnalyzeError `json:"errors,omitempty"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
