package interfaces

import (
	"context"

	"github.com/webguardai/webguard/internal/model"
)

// WebClient executes a single HTTP exchange. Implementations may be a plain
// net/http client or a headless browser; the Fetcher is agnostic and layers
// politeness (robots, rate limits, retries) on top of this contract.
type WebClient interface {
	Do(ctx context.Context, req *model.Request) (*model.Response, error)

	// Close releases any resources held by the client.
	Close() error
}
