package server

import (
	"github.com/webguardai/webguard/internal/aggregator"
	"github.com/webguardai/webguard/internal/app"
	"github.com/webguardai/webguard/internal/callback"
	"github.com/webguardai/webguard/internal/fetcher"
	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/webclient"
)

// Config assembles the full service. Nil sub-configs fall back to each
// component's DefaultConfig.
type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// StoragePath is the SQLite database file for verdicts and delivery
	// state. Empty selects the in-memory store: nothing survives restarts.
	StoragePath string

	// Logger defaults to a stdout JSON logger.
	Logger interfaces.Logger

	AppConfig        *app.Config
	FetcherConfig    *fetcher.Config
	AggregatorConfig *aggregator.Config
	CallbackConfig   *callback.Config
	WebClientConfig  *webclient.Config
}
