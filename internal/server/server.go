// Package server is the HTTP + WebSocket API surface for WebGuard.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/webguardai/webguard/docs" // generated swagger docs
	"github.com/webguardai/webguard/internal/aggregator"
	"github.com/webguardai/webguard/internal/app"
	"github.com/webguardai/webguard/internal/callback"
	"github.com/webguardai/webguard/internal/fetcher"
	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/logging"
	"github.com/webguardai/webguard/internal/scorer"
	"github.com/webguardai/webguard/internal/store"
	"github.com/webguardai/webguard/internal/webclient"

	extr "github.com/webguardai/webguard/internal/extractor"
)

// Server wires the full pipeline behind the REST API.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	store        interfaces.ResultStore
	webclient    interfaces.WebClient
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       interfaces.Logger
}

// NewServer assembles the service from its components.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	appCfg := app.DefaultConfig()
	if cfg.AppConfig != nil {
		appCfg = *cfg.AppConfig
	}
	fetchCfg := fetcher.DefaultConfig()
	if cfg.FetcherConfig != nil {
		fetchCfg = *cfg.FetcherConfig
	}
	aggCfg := aggregator.DefaultConfig()
	if cfg.AggregatorConfig != nil {
		aggCfg = *cfg.AggregatorConfig
	}
	cbCfg := callback.DefaultConfig()
	if cfg.CallbackConfig != nil {
		cbCfg = *cfg.CallbackConfig
	}
	wcCfg := webclient.DefaultConfig()
	if cfg.WebClientConfig != nil {
		wcCfg = *cfg.WebClientConfig
	}

	webclient.RegisterDefaultBackends()
	wc, err := webclient.New(wcCfg, logger)
	if err != nil {
		return nil, err
	}

	var st interfaces.ResultStore
	if cfg.StoragePath != "" {
		st, err = store.NewSQLiteStore(cfg.StoragePath, logger)
		if err != nil {
			wc.Close()
			return nil, err
		}
	} else {
		st = store.NewMemoryStore()
		logger.Warn("no storage path configured, verdicts will not survive restarts")
	}

	f, err := fetcher.New(fetchCfg, wc, logger)
	if err != nil {
		wc.Close()
		st.Close()
		return nil, err
	}

	extractors := extr.NewRegistry(logger,
		extr.NewTextExtractor(0),
		extr.NewURLExtractor(0),
		extr.NewMetadataExtractor(0),
		extr.NewImageExtractor(0),
	)
	scorers := scorer.NewRegistry(logger,
		scorer.NewTextModelScorer(0),
		scorer.NewAnomalyScorer(0),
		scorer.NewRuleScorer(0),
	)

	orch := app.New(appCfg, f, extractors, scorers,
		aggregator.New(aggCfg), st,
		callback.New(cbCfg, nil, st, logger),
		logger)

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		store:        st,
		webclient:    wc,
		router:       chi.NewRouter(),
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}
	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/api/v1/analyze", s.optionsHandler("POST"))
	r.Options("/api/v1/analyze/batch", s.optionsHandler("POST"))
	r.Options("/api/v1/results/{requestID}", s.optionsHandler("GET"))
	r.Options("/api/v1/jobs", s.optionsHandler("GET"))
	r.Options("/api/v1/jobs/{jobID}", s.optionsHandler("GET, DELETE"))

	// Analysis
	r.Post("/api/v1/analyze", s.handleAnalyze)
	r.Post("/api/v1/analyze/batch", s.handleAnalyzeBatch)
	r.Get("/api/v1/results/{requestID}", s.handleGetResult)

	// Jobs
	r.Get("/api/v1/jobs", s.handleListJobs)
	r.Get("/api/v1/jobs/{jobID}", s.handleGetJob)
	r.Delete("/api/v1/jobs/{jobID}", s.handleCancelJob)

	// WebSocket for job progress
	r.Get("/api/v1/ws/jobs/{jobID}", s.handleJobWS)

	// Interactive API docs
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []interfaces.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, interfaces.Field{Key: "query", Value: q})
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, interfaces.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() {
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	if s.webclient != nil {
		s.webclient.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

func (s *Server) submit(r *http.Request, req AnalyzeRequest) (*AnalyzeResponse, int, error) {
	res, err := s.orchestrator.Submit(r.Context(), req.URL, req.CallbackURL)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidURL):
			return nil, http.StatusBadRequest, err
		case errors.Is(err, app.ErrBackpressure):
			return nil, http.StatusTooManyRequests, err
		case errors.Is(err, app.ErrClosed):
			return nil, http.StatusServiceUnavailable, err
		default:
			return nil, http.StatusInternalServerError, err
		}
	}
	return &AnalyzeResponse{
		RequestID:    res.RequestID,
		JobID:        res.JobID,
		Status:       string(res.Status),
		Deduplicated: res.Deduplicated,
		Cached:       res.Cached,
	}, http.StatusAccepted, nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}

	resp, status, err := s.submit(r, body)
	if err != nil {
		s.logger.Warn("analyze submission rejected",
			interfaces.Field{Key: "url", Value: body.URL},
			interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, status, err.Error())
		return
	}
	s.logger.Info("analysis accepted",
		interfaces.Field{Key: "request_id", Value: resp.RequestID},
		interfaces.Field{Key: "job_id", Value: resp.JobID})
	writeJSON(w, status, resp)
}

func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(body.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "empty batch")
		return
	}

	out := BatchAnalyzeResponse{RequestIDs: make([]string, 0, len(body.URLs))}
	for _, u := range body.URLs {
		resp, _, err := s.submit(r, AnalyzeRequest{URL: u, CallbackURL: body.CallbackURL})
		if err != nil {
			out.Errors = append(out.Errors, BatchAnalyzeError{URL: u, Error: err.Error()})
			continue
		}
		out.RequestIDs = append(out.RequestIDs, resp.RequestID)
	}
	writeJSON(w, http.StatusAccepted, out)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	v, err := s.store.GetVerdict(r.Context(), requestID)
	if err != nil {
		s.logger.Warn("getting verdict", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.orchestrator.Job(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.orchestrator.CancelJob(jobID); err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.logger.Info("canceled job", interfaces.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	events, err := s.orchestrator.JobEvents(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", interfaces.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug("websocket write failed",
				interfaces.Field{Key: "job_id", Value: jobID},
				interfaces.Field{Key: "error", Value: err.Error()})
			return
		}
	}
	// Stream closed: job reached a terminal state.
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
}
