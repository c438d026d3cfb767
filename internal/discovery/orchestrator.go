package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corecomply/corecomply/internal/matching"
	"github.com/corecomply/corecomply/model"
)

// ArtifactSink receives matched artifacts, one call per artifact.
type ArtifactSink interface {
	Add(ctx context.Context, artifact model.EvidenceArtifact) error
}

// Adapter invocation statuses reported per run.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// AdapterOutcome summarizes one adapter's contribution to a run.
type AdapterOutcome struct {
	Status     string `json:"status"`
	Records    int    `json:"records"`
	Artifacts  int    `json:"artifacts"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunResult summarizes a discovery run.
type RunResult struct {
	ArtifactsAdded int                                     `json:"artifacts_added"`
	Adapters       map[model.EvidenceSource]AdapterOutcome `json:"adapters"`
}

// RunObserver receives per-adapter outcomes. Implementations record
// metrics or audit telemetry.
type RunObserver interface {
	OnAdapterCompleted(source model.EvidenceSource, outcome AdapterOutcome)
}

// Orchestrator runs the adapter registry concurrently and persists the
// qualifying artifacts.
type Orchestrator struct {
	adapters       []Adapter
	matcher        *matching.Matcher
	sink           ArtifactSink
	logger         *zap.Logger
	adapterTimeout time.Duration
	now            func() time.Time
	observers      []RunObserver
}

// Option configures optional Orchestrator dependencies.
type Option func(*Orchestrator)

// WithAdapterTimeout bounds each adapter invocation. Zero disables the
// per-adapter deadline.
func WithAdapterTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.adapterTimeout = d }
}

// WithClock overrides the time source. For testing.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithObserver adds a run observer.
func WithObserver(obs RunObserver) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs) }
}

// NewOrchestrator creates an Orchestrator over the given adapter
// registry.
func NewOrchestrator(adapters []Adapter, matcher *matching.Matcher, sink ArtifactSink, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		adapters: adapters,
		matcher:  matcher,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// adapterResult collects one adapter branch's outcome at the fan-in.
type adapterResult struct {
	source  model.EvidenceSource
	records []model.SourceRecord
	status  string
	elapsed time.Duration
	err     error
}

// Run invokes every adapter concurrently, matches their records against
// the obligation list, and appends the resulting artifacts to the sink.
// A failed adapter contributes an empty record set; Run itself only
// returns the aggregate summary and never fails because a branch did.
func (o *Orchestrator) Run(ctx context.Context, period model.Period, footprint model.StateFootprint, obligations []model.Obligation) RunResult {
	results := o.fetchAll(ctx, period, footprint)
	now := o.now()

	run := RunResult{Adapters: make(map[model.EvidenceSource]AdapterOutcome, len(results))}
	for _, r := range results {
		outcome := AdapterOutcome{
			Status:     r.status,
			Records:    len(r.records),
			DurationMs: r.elapsed.Milliseconds(),
		}
		if r.err != nil {
			outcome.Error = r.err.Error()
			o.logger.Warn("discovery adapter failed",
				zap.String("source", string(r.source)),
				zap.String("status", r.status),
				zap.Error(r.err),
			)
		}

		artifacts := o.matcher.MatchBatch(now, r.records, obligations)
		for i := range artifacts {
			artifacts[i].Source = r.source
			if err := o.sink.Add(ctx, artifacts[i]); err != nil {
				o.logger.Error("evidence append failed",
					zap.String("source", string(r.source)),
					zap.String("artifact_id", artifacts[i].ID),
					zap.Error(err),
				)
				continue
			}
			outcome.Artifacts++
		}
		run.ArtifactsAdded += outcome.Artifacts
		run.Adapters[r.source] = outcome

		for _, obs := range o.observers {
			obs.OnAdapterCompleted(r.source, outcome)
		}
	}

	o.logger.Info("discovery run completed",
		zap.Int("adapters", len(results)),
		zap.Int("artifacts", run.ArtifactsAdded),
	)
	return run
}

// fetchAll dispatches every adapter without waiting on the others and
// joins their results. Each branch resolves to a result even when the
// adapter returns an error or panics.
func (o *Orchestrator) fetchAll(ctx context.Context, period model.Period, footprint model.StateFootprint) []adapterResult {
	if len(o.adapters) == 0 {
		return nil
	}

	ch := make(chan adapterResult, len(o.adapters))
	var wg sync.WaitGroup

	for _, adapter := range o.adapters {
		wg.Add(1)
		go func(a Adapter) {
			defer wg.Done()
			start := time.Now()
			r := o.fetchOne(ctx, a, period, footprint)
			r.elapsed = time.Since(start)
			ch <- r
		}(adapter)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var results []adapterResult
	for r := range ch {
		results = append(results, r)
	}
	return results
}

// fetchOne invokes a single adapter with the configured deadline,
// converting errors and panics into an empty contribution.
func (o *Orchestrator) fetchOne(ctx context.Context, a Adapter, period model.Period, footprint model.StateFootprint) (result adapterResult) {
	result.source = a.Source()
	result.status = StatusOK

	if o.adapterTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.adapterTimeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			result.records = nil
			result.status = StatusError
			result.err = fmt.Errorf("adapter panic: %v", rec)
		}
	}()

	records, err := a.Fetch(ctx, period, footprint)
	if err != nil {
		result.status = StatusError
		if ctx.Err() == context.DeadlineExceeded {
			result.status = StatusTimeout
		}
		result.err = err
		return result
	}

	result.records = records
	return result
}
