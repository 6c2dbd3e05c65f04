// Command webguard runs the threat analysis API server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/webguardai/webguard/internal/app"
	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/logging"
	"github.com/webguardai/webguard/internal/server"
	"github.com/webguardai/webguard/internal/webclient"
)

func main() {
	var (
		listenAddr  = flag.String("listen", ":8080", "HTTP listen address")
		storagePath = flag.String("db", "webguard.db", "SQLite database path (empty for in-memory)")
		backend     = flag.String("backend", "nethttp", "webclient backend: nethttp or chromedp")
		maxWorkers  = flag.Int("workers", 0, "concurrent pipeline executions (0 for default)")
		queueSize   = flag.Int("queue", 0, "pending-job queue size (0 for default)")
		cacheTTL    = flag.Duration("cache-ttl", 15*time.Minute, "verdict cache TTL (0 disables)")
	)
	flag.Parse()

	logger := logging.NewStdoutLogger("webguard")

	appCfg := app.DefaultConfig()
	if *maxWorkers > 0 {
		appCfg.MaxWorkers = *maxWorkers
	}
	if *queueSize > 0 {
		appCfg.QueueSize = *queueSize
	}
	appCfg.CacheTTL = *cacheTTL

	wcCfg := webclient.DefaultConfig()
	wcCfg.Backend = webclient.Backend(*backend)

	srv, err := server.NewServer(server.Config{
		ListenAddr:      *listenAddr,
		StoragePath:     *storagePath,
		Logger:          logger,
		AppConfig:       &appCfg,
		WebClientConfig: &wcCfg,
	})
	if err != nil {
		logger.Error("failed to start server", interfaces.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
	defer srv.Close()

	httpSrv := srv.HTTPServer()

	go func() {
		logger.Info("listening", interfaces.Field{Key: "addr", Value: *listenAddr})
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", interfaces.Field{Key: "error", Value: err.Error()})
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", interfaces.Field{Key: "error", Value: err.Error()})
	}
}
