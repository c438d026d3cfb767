// Package persistence durably stores each domain store's full state as
// a named snapshot. Stores serialize themselves after every mutation
// and rehydrate from their snapshot at construction.
package persistence

import "context"

// StateStore saves and loads named state snapshots.
type StateStore interface {
	// Save replaces the snapshot stored under name.
	Save(ctx context.Context, name string, state []byte) error

	// Load returns the snapshot stored under name. The boolean reports
	// whether a snapshot exists; a missing snapshot is not an error.
	Load(ctx context.Context, name string) ([]byte, bool, error)
}

// Snapshot names used by the domain stores.
const (
	NameEvidence    = "evidence"
	NameRASCI       = "rasci"
	NameSetup       = "setup"
	NameObligations = "obligations"
	NameOrg         = "org"
	NameRegisters   = "registers"
)
