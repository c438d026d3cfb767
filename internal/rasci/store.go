package rasci

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corecomply/corecomply/internal/persistence"
	"github.com/corecomply/corecomply/model"
)

// Store holds the adopted assignment map. Adoption replaces the whole
// map atomically; there is no merge path.
type Store struct {
	mu          sync.RWMutex
	assignments map[model.ControlDomain][]model.RASCIAssignment
	adopted     bool
	adoptedAt   time.Time
	states      persistence.StateStore
	logger      *zap.Logger
	now         func() time.Time
}

// snapshot is the persisted form of the store's full state.
type snapshot struct {
	Adopted     bool                                           `json:"adopted"`
	AdoptedAt   time.Time                                      `json:"adopted_at"`
	Assignments map[model.ControlDomain][]model.RASCIAssignment `json:"assignments"`
}

// StoreOption configures optional Store dependencies.
type StoreOption func(*Store)

// WithClock overrides the time source. For testing.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a RASCI store, rehydrating from the state store when
// a snapshot exists.
func NewStore(ctx context.Context, states persistence.StateStore, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{states: states, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if states != nil {
		data, ok, err := states.Load(ctx, persistence.NameRASCI)
		if err != nil {
			logger.Warn("rasci snapshot load failed", zap.Error(err))
		} else if ok {
			var snap snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				logger.Warn("rasci snapshot corrupt, starting empty", zap.Error(err))
			} else {
				s.assignments = snap.Assignments
				s.adopted = snap.Adopted
				s.adoptedAt = snap.AdoptedAt
			}
		}
	}
	return s
}

// AdoptFromKeyPersonnel expands every domain template against the
// directory and replaces the stored assignment map. Roles without an
// assigned person contribute nothing; every domain key is present in
// the result even when its list is empty. Re-adoption after a
// hand-over moves all of a role's assignments to the successor.
func (s *Store) AdoptFromKeyPersonnel(ctx context.Context, directory model.RoleDirectory) {
	next := make(map[model.ControlDomain][]model.RASCIAssignment, len(model.AllControlDomains))
	for _, domain := range model.AllControlDomains {
		assignments := []model.RASCIAssignment{}
		for _, entry := range Template(domain) {
			person, ok := directory.Person(entry.Role)
			if !ok {
				continue
			}
			for _, letter := range entry.Letters {
				assignments = append(assignments, model.RASCIAssignment{
					Role:   entry.Role,
					Person: person,
					Letter: letter,
				})
			}
		}
		next[domain] = assignments
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = next
	s.adopted = true
	s.adoptedAt = s.now().UTC()
	s.persistLocked(ctx)

	s.logger.Info("rasci templates adopted",
		zap.Int("domains", len(next)),
		zap.Int("roles_assigned", len(directory)),
	)
}

// Adopted reports whether adoption has ever run. Read by the setup
// calculator's rasci step predicate.
func (s *Store) Adopted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adopted
}

// AdoptedAt returns when adoption last ran, and whether it ever has.
func (s *Store) AdoptedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adoptedAt, s.adopted
}

// RasciFor groups the stored assignments for the given key by letter.
// Adoption only ever populates the 12 domain-name keys, so a caller
// passing a control reference that is not also a domain name gets the
// all-empty structure rather than an error.
func (s *Store) RasciFor(key string) model.GroupedAssignments {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grouped := model.EmptyGroupedAssignments()
	assignments, ok := s.assignments[model.ControlDomain(key)]
	if !ok {
		return grouped
	}
	for _, a := range assignments {
		switch a.Letter {
		case model.Responsible:
			grouped.R = append(grouped.R, a)
		case model.Accountable:
			grouped.A = append(grouped.A, a)
		case model.Support:
			grouped.S = append(grouped.S, a)
		case model.Consulted:
			grouped.C = append(grouped.C, a)
		case model.Informed:
			grouped.I = append(grouped.I, a)
		}
	}
	return grouped
}

// Assignments returns a copy of the full adopted map.
func (s *Store) Assignments() map[model.ControlDomain][]model.RASCIAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[model.ControlDomain][]model.RASCIAssignment, len(s.assignments))
	for domain, list := range s.assignments {
		out[domain] = append([]model.RASCIAssignment(nil), list...)
	}
	return out
}

// persistLocked replaces the durable snapshot. Callers hold the write
// lock.
func (s *Store) persistLocked(ctx context.Context) {
	if s.states == nil {
		return
	}
	data, err := json.Marshal(snapshot{
		Adopted:     s.adopted,
		AdoptedAt:   s.adoptedAt,
		Assignments: s.assignments,
	})
	if err != nil {
		s.logger.Error("rasci snapshot marshal failed", zap.Error(err))
		return
	}
	if err := s.states.Save(ctx, persistence.NameRASCI, data); err != nil {
		s.logger.Warn("rasci snapshot save failed", zap.Error(err))
	}
}
