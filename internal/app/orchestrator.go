// Package app hosts the orchestrator: the admission, deduplication and
// scheduling layer that turns analysis requests into pipeline executions
// and verdicts.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webguardai/webguard/internal/aggregator"
	"github.com/webguardai/webguard/internal/extractor"
	"github.com/webguardai/webguard/internal/fetcher"
	"github.com/webguardai/webguard/internal/interfaces"
	"github.com/webguardai/webguard/internal/model"
	"github.com/webguardai/webguard/internal/scorer"
	"github.com/webguardai/webguard/internal/utils"
)

var (
	// ErrBackpressure is returned when the pending-job queue is full.
	// Callers should retry later; nothing was admitted.
	ErrBackpressure = errors.New("analysis queue is full")

	// ErrClosed is returned for submissions after Close.
	ErrClosed = errors.New("orchestrator is closed")

	// ErrInvalidURL wraps canonicalization failures on admission.
	ErrInvalidURL = errors.New("invalid url")

	// ErrJobNotFound is returned by job lookups and cancellation.
	ErrJobNotFound = errors.New("job not found")
)

// DocumentFetcher retrieves one document; satisfied by *fetcher.Fetcher.
type DocumentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.Document, error)
}

// Deliverer pushes a verdict to a callback URL; satisfied by
// *callback.Dispatcher.
type Deliverer interface {
	Deliver(ctx context.Context, callbackURL string, v *model.Verdict) error
}

// SubmitResult is the admission outcome for one analysis request.
type SubmitResult struct {
	RequestID string
	JobID     string
	Status    JobStatus

	// Deduplicated marks fan-in to an already in-flight job; Cached marks
	// a short-circuit from a fresh persisted verdict.
	Deduplicated bool
	Cached       bool
}

// Orchestrator owns the job table and the worker pool. At most one job per
// URL fingerprint is in flight at any time; later submissions for the same
// fingerprint attach to it.
type Orchestrator struct {
	cfg        Config
	fetcher    DocumentFetcher
	extractors *extractor.Registry
	scorers    *scorer.Registry
	agg        *aggregator.Aggregator
	store      interfaces.ResultStore
	deliverer  Deliverer
	logger     interfaces.Logger

	queue      chan *Job
	workerWg   sync.WaitGroup
	deliveryWg sync.WaitGroup

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	jobs     map[string]*Job
	inflight map[string]*Job // fingerprint -> job
	cancels  map[string]context.CancelFunc
}

// New wires the orchestrator and starts its worker pool.
func New(
	cfg Config,
	df DocumentFetcher,
	extractors *extractor.Registry,
	scorers *scorer.Registry,
	agg *aggregator.Aggregator,
	store interfaces.ResultStore,
	deliverer Deliverer,
	logger interfaces.Logger,
) *Orchestrator {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		cfg:        cfg,
		fetcher:    df,
		extractors: extractors,
		scorers:    scorers,
		agg:        agg,
		store:      store,
		deliverer:  deliverer,
		logger:     logger.With(interfaces.Field{Key: "component", Value: "orchestrator"}),
		queue:      make(chan *Job, cfg.QueueSize),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		jobs:       make(map[string]*Job),
		inflight:   make(map[string]*Job),
		cancels:    make(map[string]context.CancelFunc),
	}

	for i := 0; i < cfg.MaxWorkers; i++ {
		o.workerWg.Add(1)
		go o.worker()
	}
	return o
}

// Submit admits one analysis request. The URL is canonicalized and
// fingerprinted; a fresh cached verdict short-circuits the pipeline, an
// in-flight job for the same fingerprint absorbs the request, and otherwise
// a new job is queued. A full queue rejects with ErrBackpressure.
func (o *Orchestrator) Submit(ctx context.Context, rawURL, callbackURL string) (*SubmitResult, error) {
	canonical, fp, err := utils.CanonicalFingerprint(rawURL, o.cfg.Canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	requestID := uuid.New().String()

	if o.cfg.CacheTTL > 0 {
		cached, err := o.store.GetVerdictByFingerprint(ctx, fp)
		if err != nil {
			o.logger.Warn("verdict cache lookup failed",
				interfaces.Field{Key: "fingerprint", Value: fp},
				interfaces.Field{Key: "error", Value: err.Error()})
		} else if cached != nil && time.Since(cached.ComputedAt) <= o.cfg.CacheTTL {
			return o.admitCached(ctx, requestID, callbackURL, canonical, fp, cached)
		}
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}

	if job, ok := o.inflight[fp]; ok {
		job.attached = append(job.attached, attachedRequest{requestID: requestID, callbackURL: callbackURL})
		job.RequestIDs = append(job.RequestIDs, requestID)
		jobID, status := job.ID, job.Status
		o.mu.Unlock()
		o.logger.Debug("request attached to in-flight job",
			interfaces.Field{Key: "request_id", Value: requestID},
			interfaces.Field{Key: "job_id", Value: jobID})
		return &SubmitResult{RequestID: requestID, JobID: jobID, Status: status, Deduplicated: true}, nil
	}

	job := &Job{
		ID:          uuid.New().String(),
		URL:         canonical,
		Fingerprint: fp,
		Status:      JobPending,
		RequestIDs:  []string{requestID},
		StartedAt:   time.Now().UTC(),
		Events:      make(chan JobEvent, 16),
		attached:    []attachedRequest{{requestID: requestID, callbackURL: callbackURL}},
	}

	jobCtx, cancel := context.WithCancel(o.baseCtx)
	job.ctx = jobCtx

	select {
	case o.queue <- job:
	default:
		o.mu.Unlock()
		cancel()
		return nil, ErrBackpressure
	}

	o.jobs[job.ID] = job
	o.inflight[fp] = job
	o.cancels[job.ID] = cancel

	// Emit before releasing the mutex: a worker may drain the job the
	// moment it is queued, and finish closes Events only after taking the
	// mutex, so the pending event is ordered ahead of the close.
	o.emit(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobPending})
	o.mu.Unlock()

	o.logger.Info("job queued",
		interfaces.Field{Key: "job_id", Value: job.ID},
		interfaces.Field{Key: "url", Value: canonical})
	return &SubmitResult{RequestID: requestID, JobID: job.ID, Status: JobPending}, nil
}

// admitCached serves a repeat submission from the persisted verdict: the
// cached verdict is cloned under the new request id, persisted and
// delivered, without touching the pipeline.
func (o *Orchestrator) admitCached(ctx context.Context, requestID, callbackURL, canonical, fp string, cached *model.Verdict) (*SubmitResult, error) {
	clone := *cached
	clone.RequestID = requestID
	if err := o.store.PutVerdict(ctx, &clone); err != nil {
		return nil, fmt.Errorf("persist cached verdict: %w", err)
	}
	o.logger.Info("request served from verdict cache",
		interfaces.Field{Key: "request_id", Value: requestID},
		interfaces.Field{Key: "url", Value: canonical},
		interfaces.Field{Key: "fingerprint", Value: fp})

	if callbackURL != "" {
		o.dispatchAsync(callbackURL, &clone)
	}
	return &SubmitResult{RequestID: requestID, JobID: "", Status: JobDone, Cached: true}, nil
}

func (o *Orchestrator) worker() {
	defer o.workerWg.Done()
	for job := range o.queue {
		o.runJob(job)
	}
}

func (o *Orchestrator) runJob(job *Job) {
	jobCtx := job.ctx
	if o.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, o.cfg.JobTimeout)
		defer cancel()
	}

	if jobCtx.Err() != nil { // canceled while queued
		o.finish(job, JobCanceled, "canceled before start", nil)
		return
	}

	o.setStatus(job, JobRunning)
	o.emit(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobRunning})

	doc, err := o.fetcher.Fetch(jobCtx, job.URL)
	if err != nil {
		if o.jobCanceled(job, jobCtx) {
			return
		}
		if fe, ok := fetcher.AsFetchError(err); ok {
			o.completeUnfetchable(job, fe)
			return
		}
		o.finish(job, JobFailed, err.Error(), nil)
		return
	}

	features, failures := o.extractors.ExtractAll(jobCtx, doc)
	for name, msg := range failures {
		o.logger.Warn("feature extraction degraded",
			interfaces.Field{Key: "job_id", Value: job.ID},
			interfaces.Field{Key: "extractor", Value: name},
			interfaces.Field{Key: "error", Value: msg})
	}

	partials := o.scorers.ScoreAll(jobCtx, features)

	// Cancellation discards partial results; no verdict is persisted.
	if o.jobCanceled(job, jobCtx) {
		return
	}

	res := o.agg.Aggregate(partials)
	verdict := &model.Verdict{
		URL:           job.URL,
		Fingerprint:   job.Fingerprint,
		RiskScore:     res.RiskScore,
		Severity:      res.Severity,
		Reason:        res.Reason,
		PartialScores: partials,
		ComputedAt:    time.Now().UTC(),
	}

	if res.Severity == model.SeverityFailed {
		o.finish(job, JobFailed, res.Reason, verdict)
		return
	}
	o.finish(job, JobDone, "", verdict)
}

// completeUnfetchable turns a terminal fetch failure into a scoreless
// verdict: BLOCKED for robots disallows, UNREACHABLE otherwise.
func (o *Orchestrator) completeUnfetchable(job *Job, fe *fetcher.Error) {
	severity := model.SeverityUnreachable
	if fe.Kind == fetcher.KindBlockedByRobots {
		severity = model.SeverityBlocked
	}
	verdict := &model.Verdict{
		URL:         job.URL,
		Fingerprint: job.Fingerprint,
		Severity:    severity,
		Reason:      fe.Error(),
		ComputedAt:  time.Now().UTC(),
	}
	o.finish(job, JobDone, "", verdict)
}

// jobCanceled finishes the job when its context ended: canceled on explicit
// cancellation, failed on job timeout. Partial results are discarded either
// way.
func (o *Orchestrator) jobCanceled(job *Job, jobCtx context.Context) bool {
	err := jobCtx.Err()
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		o.finish(job, JobFailed, "job timeout exceeded", nil)
	} else {
		o.finish(job, JobCanceled, "canceled", nil)
	}
	return true
}

// finish releases the fingerprint, persists the verdict once per attached
// request, dispatches callbacks and only then records the terminal state.
// Ordering matters: anyone observing a terminal job must be able to read
// its verdicts from the store.
func (o *Orchestrator) finish(job *Job, status JobStatus, errMsg string, verdict *model.Verdict) {
	o.mu.Lock()
	job.Error = errMsg
	job.EndedAt = time.Now().UTC()
	attached := append([]attachedRequest(nil), job.attached...)
	delete(o.inflight, job.Fingerprint)
	delete(o.cancels, job.ID)
	o.mu.Unlock()

	var first *model.Verdict
	if verdict != nil {
		for i, req := range attached {
			clone := *verdict
			clone.RequestID = req.requestID
			if i == 0 {
				first = &clone
				o.mu.Lock()
				job.Verdict = first
				o.mu.Unlock()
			}
			if err := o.store.PutVerdict(context.Background(), &clone); err != nil {
				o.logger.Error("failed to persist verdict",
					interfaces.Field{Key: "request_id", Value: req.requestID},
					interfaces.Field{Key: "error", Value: err.Error()})
				continue
			}
			if req.callbackURL != "" {
				o.dispatchAsync(req.callbackURL, &clone)
			}
		}
	}

	o.mu.Lock()
	job.Status = status
	o.mu.Unlock()

	o.emit(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: status, Error: errMsg})
	if first != nil {
		o.emit(job, JobEvent{JobID: job.ID, Type: JobEventResult, Status: status, Verdict: first})
	}
	close(job.Events)

	o.logger.Info("job finished",
		interfaces.Field{Key: "job_id", Value: job.ID},
		interfaces.Field{Key: "status", Value: string(status)},
		interfaces.Field{Key: "url", Value: job.URL})
}

func (o *Orchestrator) dispatchAsync(callbackURL string, v *model.Verdict) {
	o.deliveryWg.Add(1)
	go func() {
		defer o.deliveryWg.Done()
		if err := o.deliverer.Deliver(o.baseCtx, callbackURL, v); err != nil {
			o.logger.Warn("callback delivery failed",
				interfaces.Field{Key: "request_id", Value: v.RequestID},
				interfaces.Field{Key: "error", Value: err.Error()})
		}
	}()
}

func (o *Orchestrator) setStatus(job *Job, status JobStatus) {
	o.mu.Lock()
	job.Status = status
	o.mu.Unlock()
}

func (o *Orchestrator) emit(job *Job, ev JobEvent) {
	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

// Job returns a snapshot of the job, or ErrJobNotFound.
func (o *Orchestrator) Job(jobID string) (*Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	job, ok := o.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.snapshot(), nil
}

// JobEvents returns the job's event stream. The channel closes when the job
// reaches a terminal state.
func (o *Orchestrator) JobEvents(jobID string) (<-chan JobEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	job, ok := o.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Events, nil
}

// ListJobs returns snapshots of all known jobs.
func (o *Orchestrator) ListJobs() []*Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Job, 0, len(o.jobs))
	for _, job := range o.jobs {
		out = append(out, job.snapshot())
	}
	return out
}

// CancelJob cancels a pending or running job. Terminal jobs are left alone.
func (o *Orchestrator) CancelJob(jobID string) error {
	o.mu.Lock()
	job, ok := o.jobs[jobID]
	if !ok {
		o.mu.Unlock()
		return ErrJobNotFound
	}
	if job.Status.Terminal() {
		o.mu.Unlock()
		return nil
	}
	cancel := o.cancels[jobID]
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	o.logger.Info("job cancel requested", interfaces.Field{Key: "job_id", Value: jobID})
	return nil
}

// Close stops admissions, cancels in-flight jobs and waits for workers and
// pending callback deliveries to drain.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	cancels := make([]context.CancelFunc, 0, len(o.cancels))
	for _, c := range o.cancels {
		cancels = append(cancels, c)
	}
	o.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	close(o.queue)
	o.workerWg.Wait()
	o.deliveryWg.Wait()
	o.baseCancel()
	o.logger.Info("orchestrator closed")
	return nil
}
