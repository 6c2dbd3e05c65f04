package model

import (
	"net/http"
	"time"
)

// Request is the transport-agnostic request shape passed to a WebClient.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is the raw result of one WebClient exchange. FinalURL reflects
// any redirects followed by the backend; it equals the request URL when no
// redirect occurred.
type Response struct {
	Request    *Request
	FinalURL   string
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}
