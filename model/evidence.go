// Package model contains the shared domain types for the CoreComply
// compliance service: evidence artifacts, obligations, RASCI assignments,
// setup steps, the request context, and the error envelope.
package model

import "time"

// EvidenceSource identifies the integration origin of an evidence artifact.
type EvidenceSource string

// The fixed set of integration origins. Manual covers artifacts uploaded
// by a reviewer rather than pulled from a feed.
const (
	SourceSTP         EvidenceSource = "STP"
	SourceSuperStream EvidenceSource = "SuperStream"
	SourceBAS         EvidenceSource = "BAS"
	SourcePayrollTax  EvidenceSource = "PayrollTax"
	SourceWorkersComp EvidenceSource = "WorkersComp"
	SourceLSL         EvidenceSource = "LSL"
	SourceVEVO        EvidenceSource = "VEVO"
	SourceStapled     EvidenceSource = "Stapled"
	SourcePayslip     EvidenceSource = "Payslip"
	SourceManual      EvidenceSource = "Manual"
)

// Period is a half-open date interval [Start, End) that a piece of
// evidence covers.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StateFootprint is the set of Australian jurisdictions the tenant
// operates in. State-scoped adapters produce one record set per state.
type StateFootprint struct {
	States []string `json:"states"`
}

// SourceRecord is a raw record pulled from an integration feed before it
// has been matched against the obligation register.
type SourceRecord struct {
	Title          string   `json:"title"`
	Period         Period   `json:"period"`
	Tags           []string `json:"tags"`
	IntegrationRef string   `json:"integration_ref"`
}

// EvidenceArtifact is a matched, stored piece of compliance evidence.
//
// ObligationRefs holds the top matches by confidence, best first.
// Confidence is the top match's score and is nil when no match cleared
// the retention threshold. Accepted is nil until a reviewer records a
// disposition.
type EvidenceArtifact struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Source         EvidenceSource `json:"source"`
	Period         Period         `json:"period"`
	UploadedAt     time.Time      `json:"uploaded_at"`
	IntegrationRef string         `json:"integration_ref,omitempty"`
	ObligationRefs []string       `json:"obligation_refs"`
	Confidence     *float64       `json:"confidence,omitempty"`
	Accepted       *bool          `json:"accepted,omitempty"`
	Tags           []string       `json:"tags"`
}
