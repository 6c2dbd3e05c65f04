package fetcher

import "time"

// Config tunes politeness and retry behavior. Retry constants are
// deliberately configuration, not code.
type Config struct {
	// UserAgent identifies the crawler to targets and to robots.txt.
	UserAgent string

	// MaxAttempts bounds fetch attempts per job. Network errors, timeouts
	// and 5xx responses are retried; 4xx and robots disallows are not.
	MaxAttempts int

	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration

	// RequestTimeout bounds a single HTTP exchange.
	RequestTimeout time.Duration

	// HostRPS and HostBurst configure the per-host rate limiter.
	HostRPS   float64
	HostBurst int

	// RespectRobots enables robots.txt consultation before fetching.
	RespectRobots bool

	// RobotsTTL is how long a host's robots.txt decision is cached.
	RobotsTTL time.Duration
}

// DefaultConfig returns polite crawling defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:      "WebGuardBot/1.0 (+https://github.com/webguardai/webguard)",
		MaxAttempts:    3,
		RetryBaseDelay: 500 * time.Millisecond,
		RequestTimeout: 20 * time.Second,
		HostRPS:        2,
		HostBurst:      4,
		RespectRobots:  true,
		RobotsTTL:      time.Hour,
	}
}
