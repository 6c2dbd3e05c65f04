package webclient

import (
	"github.com/webguardai/webguard/internal/interfaces"
)

// RegisterDefaultBackends registers the nethttp and chromedp backends.
// Call this early in main() to make backends available to New.
func RegisterDefaultBackends() {
	RegisterBackend(BackendNetHTTP, func(cfg Config, logger interfaces.Logger) (interfaces.WebClient, error) {
		return NewNetHTTPClient(cfg, logger, nil), nil
	})

	RegisterBackend(BackendChromeDP, func(cfg Config, logger interfaces.Logger) (interfaces.WebClient, error) {
		return NewChromeDPClient(cfg, logger)
	})
}
