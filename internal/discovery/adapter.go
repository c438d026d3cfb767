// Package discovery pulls records from the registered integration
// feeds, scores them against the obligation register, and writes the
// resulting artifacts to the evidence store.
package discovery

import (
	"context"

	"github.com/corecomply/corecomply/model"
)

// Adapter fetches raw records from one integration feed. Fetch must be
// safe to call concurrently with other adapters; the orchestrator
// isolates its failures.
type Adapter interface {
	// Source is the identifier stamped onto every artifact the
	// adapter's records produce.
	Source() model.EvidenceSource

	// Fetch returns the records covering the requested period.
	// State-scoped adapters produce one record set per jurisdiction in
	// the footprint; the others ignore it.
	Fetch(ctx context.Context, period model.Period, footprint model.StateFootprint) ([]model.SourceRecord, error)
}

// AdapterFunc adapts a fetch function into an Adapter.
type AdapterFunc struct {
	source model.EvidenceSource
	fetch  func(ctx context.Context, period model.Period, footprint model.StateFootprint) ([]model.SourceRecord, error)
}

// NewAdapterFunc wraps a fetch function with its source identifier.
func NewAdapterFunc(source model.EvidenceSource, fetch func(context.Context, model.Period, model.StateFootprint) ([]model.SourceRecord, error)) *AdapterFunc {
	return &AdapterFunc{source: source, fetch: fetch}
}

// Source implements Adapter.
func (a *AdapterFunc) Source() model.EvidenceSource { return a.source }

// Fetch implements Adapter.
func (a *AdapterFunc) Fetch(ctx context.Context, period model.Period, footprint model.StateFootprint) ([]model.SourceRecord, error) {
	return a.fetch(ctx, period, footprint)
}
