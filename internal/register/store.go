// Package register owns the supplier evaluation register and the
// nonconformity/CAPA register.
package register

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corecomply/corecomply/internal/persistence"
	"github.com/corecomply/corecomply/model"
)

// Store is the mutex-guarded pair of registers. Both persist into one
// snapshot.
type Store struct {
	mu              sync.RWMutex
	suppliers       []model.Supplier
	nonconformities []model.Nonconformity
	states          persistence.StateStore
	logger          *zap.Logger
	now             func() time.Time
}

type snapshot struct {
	Suppliers       []model.Supplier      `json:"suppliers"`
	Nonconformities []model.Nonconformity `json:"nonconformities"`
}

// StoreOption configures optional Store dependencies.
type StoreOption func(*Store)

// WithClock overrides the time source. For testing.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a register store, rehydrating from the state store
// when a snapshot exists.
func NewStore(ctx context.Context, states persistence.StateStore, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{states: states, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if states != nil {
		data, ok, err := states.Load(ctx, persistence.NameRegisters)
		if err != nil {
			logger.Warn("registers snapshot load failed", zap.Error(err))
		} else if ok {
			var snap snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				logger.Warn("registers snapshot corrupt, starting empty", zap.Error(err))
			} else {
				s.suppliers = snap.Suppliers
				s.nonconformities = snap.Nonconformities
			}
		}
	}
	return s
}

// AddSupplier appends one supplier, assigning an ID when absent and
// defaulting the risk rating to medium.
func (s *Store) AddSupplier(ctx context.Context, sup model.Supplier) (model.Supplier, error) {
	if strings.TrimSpace(sup.Name) == "" {
		return model.Supplier{}, model.NewValidationError([]model.FieldError{
			{Field: "name", Code: "required", Message: "supplier name is required"},
		})
	}
	switch sup.RiskRating {
	case "":
		sup.RiskRating = model.RiskMedium
	case model.RiskLow, model.RiskMedium, model.RiskHigh:
	default:
		return model.Supplier{}, model.NewValidationError([]model.FieldError{
			{Field: "risk_rating", Code: "invalid", Message: "risk rating must be low, medium or high"},
		})
	}
	if sup.ID == "" {
		sup.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers = append(s.suppliers, sup)
	s.persistLocked(ctx)
	return sup, nil
}

// ReviewSupplier updates a supplier's risk rating and stamps the
// review time.
func (s *Store) ReviewSupplier(ctx context.Context, id, riskRating string) (model.Supplier, error) {
	switch riskRating {
	case model.RiskLow, model.RiskMedium, model.RiskHigh:
	default:
		return model.Supplier{}, model.NewValidationError([]model.FieldError{
			{Field: "risk_rating", Code: "invalid", Message: "risk rating must be low, medium or high"},
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.suppliers {
		if s.suppliers[i].ID == id {
			reviewed := s.now().UTC()
			s.suppliers[i].RiskRating = riskRating
			s.suppliers[i].LastReviewed = &reviewed
			s.persistLocked(ctx)
			return s.suppliers[i], nil
		}
	}
	return model.Supplier{}, model.NewNotFoundError(fmt.Sprintf("supplier %q not found", id))
}

// Suppliers returns a copy of the supplier register.
func (s *Store) Suppliers(_ context.Context) []model.Supplier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Supplier, len(s.suppliers))
	copy(out, s.suppliers)
	return out
}

// RemoveSupplier deletes a supplier.
func (s *Store) RemoveSupplier(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.suppliers {
		if s.suppliers[i].ID == id {
			s.suppliers = append(s.suppliers[:i], s.suppliers[i+1:]...)
			s.persistLocked(ctx)
			return nil
		}
	}
	return model.NewNotFoundError(fmt.Sprintf("supplier %q not found", id))
}

// RaiseNonconformity opens a new nonconformity.
func (s *Store) RaiseNonconformity(ctx context.Context, nc model.Nonconformity) (model.Nonconformity, error) {
	if strings.TrimSpace(nc.Title) == "" {
		return model.Nonconformity{}, model.NewValidationError([]model.FieldError{
			{Field: "title", Code: "required", Message: "nonconformity title is required"},
		})
	}
	if nc.ID == "" {
		nc.ID = uuid.New().String()
	}
	nc.Status = model.NCOpen
	nc.RaisedAt = s.now().UTC()
	nc.ClosedAt = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonconformities = append(s.nonconformities, nc)
	s.persistLocked(ctx)
	return nc, nil
}

// AddAction attaches a corrective action to an open nonconformity.
func (s *Store) AddAction(ctx context.Context, ncID string, action model.CorrectiveAction) (model.Nonconformity, error) {
	if strings.TrimSpace(action.Description) == "" {
		return model.Nonconformity{}, model.NewValidationError([]model.FieldError{
			{Field: "description", Code: "required", Message: "action description is required"},
		})
	}
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	action.DoneAt = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.nonconformities {
		if s.nonconformities[i].ID != ncID {
			continue
		}
		if s.nonconformities[i].Status == model.NCClosed {
			return model.Nonconformity{}, model.NewConflictError(
				fmt.Sprintf("nonconformity %q is closed", ncID),
			)
		}
		s.nonconformities[i].Actions = append(s.nonconformities[i].Actions, action)
		s.persistLocked(ctx)
		return s.nonconformities[i], nil
	}
	return model.Nonconformity{}, model.NewNotFoundError(fmt.Sprintf("nonconformity %q not found", ncID))
}

// CompleteAction marks a corrective action done.
func (s *Store) CompleteAction(ctx context.Context, ncID, actionID string) (model.Nonconformity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.nonconformities {
		if s.nonconformities[i].ID != ncID {
			continue
		}
		for j := range s.nonconformities[i].Actions {
			if s.nonconformities[i].Actions[j].ID == actionID {
				done := s.now().UTC()
				s.nonconformities[i].Actions[j].DoneAt = &done
				s.persistLocked(ctx)
				return s.nonconformities[i], nil
			}
		}
		return model.Nonconformity{}, model.NewNotFoundError(
			fmt.Sprintf("action %q not found on nonconformity %q", actionID, ncID),
		)
	}
	return model.Nonconformity{}, model.NewNotFoundError(fmt.Sprintf("nonconformity %q not found", ncID))
}

// CloseNonconformity closes a nonconformity. All attached actions must
// be done first.
func (s *Store) CloseNonconformity(ctx context.Context, ncID string) (model.Nonconformity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.nonconformities {
		if s.nonconformities[i].ID != ncID {
			continue
		}
		for _, action := range s.nonconformities[i].Actions {
			if action.DoneAt == nil {
				return model.Nonconformity{}, model.NewConflictError(
					fmt.Sprintf("action %q is not done", action.ID),
				)
			}
		}
		closed := s.now().UTC()
		s.nonconformities[i].Status = model.NCClosed
		s.nonconformities[i].ClosedAt = &closed
		s.persistLocked(ctx)
		return s.nonconformities[i], nil
	}
	return model.Nonconformity{}, model.NewNotFoundError(fmt.Sprintf("nonconformity %q not found", ncID))
}

// Nonconformities returns a copy of the register, open and closed.
func (s *Store) Nonconformities(_ context.Context) []model.Nonconformity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Nonconformity, len(s.nonconformities))
	copy(out, s.nonconformities)
	return out
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.states == nil {
		return
	}
	data, err := json.Marshal(snapshot{
		Suppliers:       s.suppliers,
		Nonconformities: s.nonconformities,
	})
	if err != nil {
		s.logger.Error("registers snapshot marshal failed", zap.Error(err))
		return
	}
	if err := s.states.Save(ctx, persistence.NameRegisters, data); err != nil {
		s.logger.Warn("registers snapshot save failed", zap.Error(err))
	}
}
