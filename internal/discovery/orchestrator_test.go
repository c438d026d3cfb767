package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/corecomply/corecomply/internal/matching"
	"github.com/corecomply/corecomply/model"
)

var runNow = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

type fakeSink struct {
	mu        sync.Mutex
	artifacts []model.EvidenceArtifact
	failing   bool
}

func (s *fakeSink) Add(_ context.Context, artifact model.EvidenceArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("sink unavailable")
	}
	s.artifacts = append(s.artifacts, artifact)
	return nil
}

func (s *fakeSink) bySource() map[model.EvidenceSource]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.EvidenceSource]int)
	for _, a := range s.artifacts {
		counts[a.Source]++
	}
	return counts
}

func testPeriod() model.Period {
	return model.Period{Start: runNow.AddDate(0, -3, 0), End: runNow.AddDate(0, 0, -5)}
}

func testFootprint() model.StateFootprint {
	return model.StateFootprint{States: []string{"NSW", "VIC"}}
}

func erroringAdapter(source model.EvidenceSource) Adapter {
	return NewAdapterFunc(source, func(context.Context, model.Period, model.StateFootprint) ([]model.SourceRecord, error) {
		return nil, errors.New("feed unavailable")
	})
}

func panickingAdapter(source model.EvidenceSource) Adapter {
	return NewAdapterFunc(source, func(context.Context, model.Period, model.StateFootprint) ([]model.SourceRecord, error) {
		panic("adapter exploded")
	})
}

func newTestOrchestrator(adapters []Adapter, sink ArtifactSink) *Orchestrator {
	return NewOrchestrator(adapters, matching.NewMatcher(), sink, zap.NewNop(),
		WithClock(func() time.Time { return runNow }))
}

func TestRun_allAdaptersContribute(t *testing.T) {
	sink := &fakeSink{}
	o := newTestOrchestrator(DefaultAdapters(), sink)

	run := o.Run(context.Background(), testPeriod(), testFootprint(), nil)

	if len(run.Adapters) != 9 {
		t.Fatalf("len(run.Adapters) = %d, want 9", len(run.Adapters))
	}
	for source, outcome := range run.Adapters {
		if outcome.Status != StatusOK {
			t.Errorf("adapter %s status = %q, want ok", source, outcome.Status)
		}
	}

	counts := sink.bySource()
	// Two states in the footprint: the three state-scoped adapters fan
	// out to two records each.
	for _, source := range []model.EvidenceSource{model.SourcePayrollTax, model.SourceWorkersComp, model.SourceLSL} {
		if counts[source] != 2 {
			t.Errorf("artifacts from %s = %d, want 2", source, counts[source])
		}
	}
	if counts[model.SourceSTP] != 2 {
		t.Errorf("artifacts from STP = %d, want 2", counts[model.SourceSTP])
	}
	if run.ArtifactsAdded != len(sink.artifacts) {
		t.Errorf("ArtifactsAdded = %d, sink holds %d", run.ArtifactsAdded, len(sink.artifacts))
	}
}

func TestRun_sourceStampedOnArtifacts(t *testing.T) {
	sink := &fakeSink{}
	o := newTestOrchestrator(DefaultAdapters(), sink)

	o.Run(context.Background(), testPeriod(), testFootprint(), nil)

	for _, a := range sink.artifacts {
		if a.Source == model.SourceManual || a.Source == "" {
			t.Errorf("artifact %q kept placeholder source %q", a.Title, a.Source)
		}
	}
}

func TestRun_singleAdapterFailureIsIsolated(t *testing.T) {
	adapters := DefaultAdapters()
	for i, a := range adapters {
		if a.Source() == model.SourceVEVO {
			adapters[i] = erroringAdapter(model.SourceVEVO)
		}
	}
	sink := &fakeSink{}
	o := newTestOrchestrator(adapters, sink)

	run := o.Run(context.Background(), testPeriod(), testFootprint(), nil)

	vevo, ok := run.Adapters[model.SourceVEVO]
	if !ok {
		t.Fatal("VEVO outcome missing from run summary")
	}
	if vevo.Status != StatusError || vevo.Artifacts != 0 {
		t.Errorf("VEVO outcome = %+v, want error with zero artifacts", vevo)
	}

	counts := sink.bySource()
	if counts[model.SourceVEVO] != 0 {
		t.Errorf("artifacts from VEVO = %d, want 0", counts[model.SourceVEVO])
	}
	okSources := 0
	for source, outcome := range run.Adapters {
		if source != model.SourceVEVO && outcome.Status == StatusOK {
			okSources++
		}
	}
	if okSources != 8 {
		t.Errorf("healthy adapters = %d, want 8", okSources)
	}
}

func TestRun_panicIsIsolated(t *testing.T) {
	adapters := []Adapter{
		panickingAdapter(model.SourceBAS),
		NewAdapterFunc(model.SourceSTP, fetchSTP),
	}
	sink := &fakeSink{}
	o := newTestOrchestrator(adapters, sink)

	run := o.Run(context.Background(), testPeriod(), testFootprint(), nil)

	if run.Adapters[model.SourceBAS].Status != StatusError {
		t.Errorf("BAS status = %q, want error", run.Adapters[model.SourceBAS].Status)
	}
	if run.Adapters[model.SourceSTP].Artifacts != 2 {
		t.Errorf("STP artifacts = %d, want 2", run.Adapters[model.SourceSTP].Artifacts)
	}
}

func TestRun_adapterTimeout(t *testing.T) {
	slow := NewAdapterFunc(model.SourceBAS, func(ctx context.Context, _ model.Period, _ model.StateFootprint) ([]model.SourceRecord, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, nil
		}
	})
	sink := &fakeSink{}
	o := NewOrchestrator([]Adapter{slow}, matching.NewMatcher(), sink, zap.NewNop(),
		WithClock(func() time.Time { return runNow }),
		WithAdapterTimeout(20*time.Millisecond))

	run := o.Run(context.Background(), testPeriod(), testFootprint(), nil)

	if got := run.Adapters[model.SourceBAS].Status; got != StatusTimeout {
		t.Errorf("status = %q, want timeout", got)
	}
}

func TestRun_matchedArtifactsCarryObligationRefs(t *testing.T) {
	obligations := []model.Obligation{
		{
			ID:         "ob-bas",
			Title:      "Lodge quarterly Business Activity Statement",
			ControlRef: "BAS-001",
			Tags:       []string{"BAS", "tax", "GST", "PAYG", "ATO"},
		},
	}
	sink := &fakeSink{}
	o := newTestOrchestrator(DefaultAdapters(), sink)

	o.Run(context.Background(), testPeriod(), testFootprint(), obligations)

	var matched int
	for _, a := range sink.artifacts {
		if a.Source == model.SourceBAS && len(a.ObligationRefs) > 0 {
			matched++
			if a.ObligationRefs[0] != "ob-bas" {
				t.Errorf("ObligationRefs[0] = %q, want ob-bas", a.ObligationRefs[0])
			}
			if a.Confidence == nil || *a.Confidence < matching.RetentionThreshold {
				t.Errorf("Confidence = %v, want >= threshold", a.Confidence)
			}
		}
	}
	if matched == 0 {
		t.Error("no BAS artifact matched the BAS obligation")
	}
}

func TestRun_rerunDuplicates(t *testing.T) {
	sink := &fakeSink{}
	o := newTestOrchestrator(DefaultAdapters(), sink)

	first := o.Run(context.Background(), testPeriod(), testFootprint(), nil)
	second := o.Run(context.Background(), testPeriod(), testFootprint(), nil)

	// No deduplication across runs: a second run re-adds everything.
	if len(sink.artifacts) != first.ArtifactsAdded+second.ArtifactsAdded {
		t.Errorf("sink holds %d artifacts, want %d", len(sink.artifacts), first.ArtifactsAdded+second.ArtifactsAdded)
	}
}

func TestRun_sinkErrorsAreCountedOut(t *testing.T) {
	sink := &fakeSink{failing: true}
	o := newTestOrchestrator(DefaultAdapters(), sink)

	run := o.Run(context.Background(), testPeriod(), testFootprint(), nil)
	if run.ArtifactsAdded != 0 {
		t.Errorf("ArtifactsAdded = %d, want 0 when the sink rejects appends", run.ArtifactsAdded)
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[model.EvidenceSource]AdapterOutcome
}

func (o *recordingObserver) OnAdapterCompleted(source model.EvidenceSource, outcome AdapterOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[model.EvidenceSource]AdapterOutcome)
	}
	o.outcomes[source] = outcome
}

func TestRun_observerSeesEveryAdapter(t *testing.T) {
	sink := &fakeSink{}
	obs := &recordingObserver{}
	o := NewOrchestrator(
		[]Adapter{
			erroringAdapter(model.SourceVEVO),
			NewAdapterFunc(model.SourceSTP, fetchSTP),
		},
		matching.NewMatcher(), sink, zap.NewNop(),
		WithClock(func() time.Time { return runNow }),
		WithObserver(obs),
	)

	o.Run(context.Background(), testPeriod(), testFootprint(), nil)

	if len(obs.outcomes) != 2 {
		t.Fatalf("observer saw %d adapters, want 2", len(obs.outcomes))
	}
	if obs.outcomes[model.SourceVEVO].Status != StatusError {
		t.Errorf("VEVO status = %q, want error", obs.outcomes[model.SourceVEVO].Status)
	}
	if obs.outcomes[model.SourceSTP].Status != StatusOK {
		t.Errorf("STP status = %q, want ok", obs.outcomes[model.SourceSTP].Status)
	}
	for source, outcome := range obs.outcomes {
		if outcome.DurationMs < 0 {
			t.Errorf("%s duration = %d, want >= 0", source, outcome.DurationMs)
		}
	}
}
