// Package evidence owns the artifact list: discovery appends matched
// artifacts, reviewers record dispositions or re-link obligations, and
// the setup calculator reads whether any evidence exists yet.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/corecomply/corecomply/internal/persistence"
	"github.com/corecomply/corecomply/model"
)

// Store is the mutex-guarded artifact list. Only this store mutates
// artifacts; every mutation replaces the snapshot in the state store.
type Store struct {
	mu        sync.RWMutex
	artifacts []model.EvidenceArtifact
	states    persistence.StateStore
	logger    *zap.Logger
}

// snapshot is the persisted form of the store's full state.
type snapshot struct {
	Artifacts []model.EvidenceArtifact `json:"artifacts"`
}

// NewStore creates an evidence store, rehydrating from the state store
// when a snapshot exists. A nil state store disables persistence.
func NewStore(ctx context.Context, states persistence.StateStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{states: states, logger: logger}

	if states != nil {
		data, ok, err := states.Load(ctx, persistence.NameEvidence)
		if err != nil {
			logger.Warn("evidence snapshot load failed", zap.Error(err))
		} else if ok {
			var snap snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				logger.Warn("evidence snapshot corrupt, starting empty", zap.Error(err))
			} else {
				s.artifacts = snap.Artifacts
			}
		}
	}
	return s
}

// Add appends one artifact.
func (s *Store) Add(ctx context.Context, artifact model.EvidenceArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, artifact)
	s.persistLocked(ctx)
	return nil
}

// List returns a copy of all artifacts in insertion order.
func (s *Store) List(_ context.Context) []model.EvidenceArtifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.EvidenceArtifact, len(s.artifacts))
	copy(out, s.artifacts)
	return out
}

// Get returns the artifact with the given ID.
func (s *Store) Get(_ context.Context, id string) (model.EvidenceArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.artifacts {
		if a.ID == id {
			return a, nil
		}
	}
	return model.EvidenceArtifact{}, model.NewNotFoundError(
		fmt.Sprintf("evidence artifact %q not found", id),
	)
}

// SetDisposition records the reviewer's accept/reject decision.
func (s *Store) SetDisposition(ctx context.Context, id string, accepted bool) (model.EvidenceArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.artifacts {
		if s.artifacts[i].ID == id {
			s.artifacts[i].Accepted = &accepted
			s.persistLocked(ctx)
			return s.artifacts[i], nil
		}
	}
	return model.EvidenceArtifact{}, model.NewNotFoundError(
		fmt.Sprintf("evidence artifact %q not found", id),
	)
}

// Relink replaces an artifact's obligation links with a reviewer's
// manual selection.
func (s *Store) Relink(ctx context.Context, id string, obligationIDs []string) (model.EvidenceArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.artifacts {
		if s.artifacts[i].ID == id {
			s.artifacts[i].ObligationRefs = append([]string(nil), obligationIDs...)
			s.persistLocked(ctx)
			return s.artifacts[i], nil
		}
	}
	return model.EvidenceArtifact{}, model.NewNotFoundError(
		fmt.Sprintf("evidence artifact %q not found", id),
	)
}

// Remove deletes an artifact. Removal is the only way artifacts leave
// the store.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.artifacts {
		if s.artifacts[i].ID == id {
			s.artifacts = append(s.artifacts[:i], s.artifacts[i+1:]...)
			s.persistLocked(ctx)
			return nil
		}
	}
	return model.NewNotFoundError(
		fmt.Sprintf("evidence artifact %q not found", id),
	)
}

// HasEvidence reports whether any artifact exists. Read by the setup
// calculator's evidenceDiscovery predicate.
func (s *Store) HasEvidence() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts) > 0
}

// Len returns the artifact count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}

// persistLocked replaces the durable snapshot. Callers hold the write
// lock. Persistence failures are logged, never surfaced to mutators.
func (s *Store) persistLocked(ctx context.Context) {
	if s.states == nil {
		return
	}
	data, err := json.Marshal(snapshot{Artifacts: s.artifacts})
	if err != nil {
		s.logger.Error("evidence snapshot marshal failed", zap.Error(err))
		return
	}
	if err := s.states.Save(ctx, persistence.NameEvidence, data); err != nil {
		s.logger.Warn("evidence snapshot save failed", zap.Error(err))
	}
}
