package webclient

import "time"

// Backend names a registered WebClient implementation.
type Backend string

const (
	BackendNetHTTP  Backend = "nethttp"
	BackendChromeDP Backend = "chromedp"
)

// Config selects and tunes a WebClient backend.
type Config struct {
	Backend Backend

	// Timeout bounds one HTTP exchange (nethttp backend).
	Timeout time.Duration

	// MaxBodyBytes caps how much of a response body is read. Zero means
	// the default cap applies.
	MaxBodyBytes int64

	// IdleAfter is how long the network must be quiet before the chromedp
	// backend considers a page settled.
	IdleAfter time.Duration

	// Headless controls whether the chromedp backend shows a browser
	// window. Defaults to true.
	Headless *bool

	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

// DefaultConfig returns the nethttp backend with conservative limits.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendNetHTTP,
		Timeout:      30 * time.Second,
		MaxBodyBytes: 8 << 20,
		IdleAfter:    2 * time.Second,
	}
}
