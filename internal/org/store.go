// Package org owns organisation state: the company profile, the people
// list, the key-personnel role directory, connected integrations, and
// the compliance timetable. The setup calculator reads its predicates;
// key-personnel edits notify a registered listener so responsibility
// templates can be re-adopted.
package org

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corecomply/corecomply/internal/persistence"
	"github.com/corecomply/corecomply/model"
)

// PersonnelListener is notified after every key-personnel replacement
// with the new directory.
type PersonnelListener func(ctx context.Context, directory model.RoleDirectory)

// Store is the mutex-guarded organisation state container.
type Store struct {
	mu           sync.RWMutex
	profile      model.CompanyProfile
	people       []model.Person
	personnel    model.RoleDirectory
	integrations map[string]bool
	timetable    []model.TimetableEntry
	states       persistence.StateStore
	logger       *zap.Logger

	listenerMu sync.RWMutex
	listeners  []PersonnelListener
}

// snapshot is the persisted form of the store's full state.
type snapshot struct {
	Profile      model.CompanyProfile  `json:"profile"`
	People       []model.Person        `json:"people"`
	Personnel    model.RoleDirectory   `json:"personnel"`
	Integrations map[string]bool       `json:"integrations"`
	Timetable    []model.TimetableEntry `json:"timetable"`
}

// NewStore creates an organisation store, rehydrating from the state
// store when a snapshot exists.
func NewStore(ctx context.Context, states persistence.StateStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		personnel:    model.RoleDirectory{},
		integrations: map[string]bool{},
		states:       states,
		logger:       logger,
	}

	if states != nil {
		data, ok, err := states.Load(ctx, persistence.NameOrg)
		if err != nil {
			logger.Warn("org snapshot load failed", zap.Error(err))
		} else if ok {
			var snap snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				logger.Warn("org snapshot corrupt, starting empty", zap.Error(err))
			} else {
				s.profile = snap.Profile
				s.people = snap.People
				if snap.Personnel != nil {
					s.personnel = snap.Personnel
				}
				if snap.Integrations != nil {
					s.integrations = snap.Integrations
				}
				s.timetable = snap.Timetable
			}
		}
	}
	return s
}

// OnPersonnelChange registers a listener for key-personnel updates.
// Listeners run synchronously after the directory is replaced, outside
// the store lock.
func (s *Store) OnPersonnelChange(fn PersonnelListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SetProfile validates and replaces the company profile.
func (s *Store) SetProfile(ctx context.Context, profile model.CompanyProfile) error {
	var details []model.FieldError
	if strings.TrimSpace(profile.LegalName) == "" {
		details = append(details, model.FieldError{
			Field: "legal_name", Code: "required", Message: "legal name is required",
		})
	}
	if !validABN(profile.ABN) {
		details = append(details, model.FieldError{
			Field: "abn", Code: "invalid", Message: "ABN must be 11 digits",
		})
	}
	if len(details) > 0 {
		return model.NewValidationError(details)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	s.persistLocked(ctx)
	return nil
}

// Profile returns the current company profile.
func (s *Store) Profile() model.CompanyProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Footprint returns the discovery scope derived from the profile.
func (s *Store) Footprint() model.StateFootprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Footprint()
}

// ProfileComplete reports whether the profile names the entity, a
// valid ABN, and at least one employing state.
func (s *Store) ProfileComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimSpace(s.profile.LegalName) != "" &&
		validABN(s.profile.ABN) &&
		len(s.profile.States) > 0
}

// AddPerson appends one person, assigning an ID when absent.
func (s *Store) AddPerson(ctx context.Context, p model.Person) (model.Person, error) {
	if strings.TrimSpace(p.Name) == "" {
		return model.Person{}, model.NewValidationError([]model.FieldError{
			{Field: "name", Code: "required", Message: "person name is required"},
		})
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.people {
		if existing.ID == p.ID {
			return model.Person{}, model.NewConflictError(
				fmt.Sprintf("person %q already exists", p.ID),
			)
		}
	}
	s.people = append(s.people, p)
	s.persistLocked(ctx)
	return p, nil
}

// People returns a copy of the people list.
func (s *Store) People(_ context.Context) []model.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Person, len(s.people))
	copy(out, s.people)
	return out
}

// PeopleLoaded reports whether any person has been loaded.
func (s *Store) PeopleLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.people) > 0
}

// SetKeyPersonnel replaces the role directory and notifies listeners
// with a copy of the new mapping.
func (s *Store) SetKeyPersonnel(ctx context.Context, directory model.RoleDirectory) {
	next := make(model.RoleDirectory, len(directory))
	for role, person := range directory {
		next[role] = person
	}

	s.mu.Lock()
	s.personnel = next
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.listenerMu.RLock()
	listeners := append([]PersonnelListener(nil), s.listeners...)
	s.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, next)
	}
}

// KeyPersonnel returns a copy of the role directory.
func (s *Store) KeyPersonnel() model.RoleDirectory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(model.RoleDirectory, len(s.personnel))
	for role, person := range s.personnel {
		out[role] = person
	}
	return out
}

// SetIntegration marks a named integration connected or disconnected.
func (s *Store) SetIntegration(ctx context.Context, name string, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if connected {
		s.integrations[name] = true
	} else {
		delete(s.integrations, name)
	}
	s.persistLocked(ctx)
}

// Integrations returns a copy of the connected-integration map.
func (s *Store) Integrations() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.integrations))
	for name, v := range s.integrations {
		out[name] = v
	}
	return out
}

// IntegrationsConnected reports whether at least one integration is
// connected.
func (s *Store) IntegrationsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.integrations) > 0
}

// SetTimetable replaces the compliance timetable.
func (s *Store) SetTimetable(ctx context.Context, entries []model.TimetableEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timetable = append([]model.TimetableEntry(nil), entries...)
	s.persistLocked(ctx)
}

// Timetable returns a copy of the timetable.
func (s *Store) Timetable() []model.TimetableEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TimetableEntry, len(s.timetable))
	copy(out, s.timetable)
	return out
}

// TimetableConfigured reports whether any timetable entry exists.
func (s *Store) TimetableConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.timetable) > 0
}

// validABN accepts exactly 11 digits, spaces ignored.
func validABN(abn string) bool {
	digits := strings.ReplaceAll(abn, " ", "")
	if len(digits) != 11 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.states == nil {
		return
	}
	data, err := json.Marshal(snapshot{
		Profile:      s.profile,
		People:       s.people,
		Personnel:    s.personnel,
		Integrations: s.integrations,
		Timetable:    s.timetable,
	})
	if err != nil {
		s.logger.Error("org snapshot marshal failed", zap.Error(err))
		return
	}
	if err := s.states.Save(ctx, persistence.NameOrg, data); err != nil {
		s.logger.Warn("org snapshot save failed", zap.Error(err))
	}
}
