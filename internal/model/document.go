package model

import (
	"net/http"
	"time"
)

// Document is the fetched representation of a URL, produced once per job
// attempt and immutable afterwards. It lives only inside one pipeline
// execution: after extraction only derived features persist.
type Document struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	FetchedAt  time.Time
}

// Redirected reports whether following the fetch moved to a different URL.
func (d *Document) Redirected() bool {
	return d.FinalURL != "" && d.FinalURL != d.URL
}
