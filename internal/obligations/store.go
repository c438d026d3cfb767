// Package obligations owns the obligation register: the list of
// compliance duties that evidence discovery scores artifacts against.
package obligations

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

// defaultObligations is the starter register seeded for a new
// Australian employer. Control references carry the integration
// prefix so matched evidence lands on the right obligation.
var defaultObligations = []model.Obligation{
	{
		Title:      "Report pay events via Single Touch Payroll",
		ControlRef: "STP-PAYEVENT-001",
		Tags:       []string{"stp", "payroll", "ato", "pay event"},
	},
	{
		Title:      "Lodge STP finalisation declaration by 14 July",
		ControlRef: "STP-FINAL-001",
		Tags:       []string{"stp", "finalisation", "ato", "eofy"},
	},
	{
		Title:      "Pay superannuation guarantee by the quarterly due date",
		ControlRef: "SUPER-SG-001",
		Tags:       []string{"superannuation", "sg", "superstream", "quarterly"},
	},
	{
		Title:      "Lodge business activity statement",
		ControlRef: "BAS-LODGE-001",
		Tags:       []string{"bas", "gst", "payg", "ato"},
	},
	{
		Title:      "Lodge state payroll tax returns",
		ControlRef: "PRT-LODGE-001",
		Tags:       []string{"payroll tax", "state revenue", "monthly"},
	},
	{
		Title:      "Maintain workers compensation policy per state",
		ControlRef: "WC-POLICY-001",
		Tags:       []string{"workers compensation", "policy", "premium"},
	},
	{
		Title:      "Accrue and report long service leave liabilities",
		ControlRef: "LSL-ACCRUAL-001",
		Tags:       []string{"long service leave", "accrual", "portable"},
	},
	{
		Title:      "Verify work rights before commencement",
		ControlRef: "VEVO-CHECK-001",
		Tags:       []string{"vevo", "work rights", "visa", "immigration"},
	},
	{
		Title:      "Request stapled super fund details for new starters",
		ControlRef: "STAPLED-REQUEST-001",
		Tags:       []string{"stapled", "superannuation", "onboarding"},
	},
	{
		Title:      "Issue compliant payslips within one working day",
		ControlRef: "PAYSLIP-ISSUE-001",
		Tags:       []string{"payslip", "fair work", "payroll"},
	},
	{
		Title:      "Retain employee records for seven years",
		ControlRef: "REC-RETAIN-001",
		Tags:       []string{"records", "retention", "fair work"},
	},
	{
		Title:      "Review award classifications annually",
		ControlRef: "AWARD-REVIEW-001",
		Tags:       []string{"award", "classification", "annual review"},
	},
}

// Store is the mutex-guarded obligation register.
type Store struct {
	mu          sync.RWMutex
	obligations []model.Obligation
	seeded      bool
	states      persistence.StateStore
	logger      *zap.Logger
}

// snapshot is the persisted form of the store's full state.
type snapshot struct {
	Seeded      bool               `json:"seeded"`
	Obligations []model.Obligation `json:"obligations"`
}

// NewStore creates an obligation store, rehydrating from the state
// store when a snapshot exists.
func NewStore(ctx context.Context, states persistence.StateStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{states: states, logger: logger}

	if states != nil {
		data, ok, err := states.Load(ctx, persistence.NameObligations)
		if err != nil {
			logger.Warn("obligations snapshot load failed", zap.Error(err))
		} else if ok {
			var snap snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				logger.Warn("obligations snapshot corrupt, starting empty", zap.Error(err))
			} else {
				s.obligations = snap.Obligations
				s.seeded = snap.Seeded
			}
		}
	}
	return s
}

// SeedDefaults loads the starter register. Seeding twice is a no-op so
// a rerun of the setup step cannot duplicate entries.
func (s *Store) SeedDefaults(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return 0
	}
	for _, ob := range defaultObligations {
		ob.ID = uuid.New().String()
		s.obligations = append(s.obligations, ob)
	}
	s.seeded = true
	s.persistLocked(ctx)
	s.logger.Info("obligation register seeded", zap.Int("count", len(defaultObligations)))
	return len(defaultObligations)
}

// Add appends a custom obligation, assigning an ID when absent.
func (s *Store) Add(ctx context.Context, ob model.Obligation) (model.Obligation, error) {
	if strings.TrimSpace(ob.Title) == "" {
		return model.Obligation{}, model.NewValidationError([]model.FieldError{
			{Field: "title", Code: "required", Message: "obligation title is required"},
		})
	}
	if ob.ID == "" {
		ob.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.obligations {
		if existing.ID == ob.ID {
			return model.Obligation{}, model.NewConflictError(
				fmt.Sprintf("obligation %q already exists", ob.ID),
			)
		}
	}
	s.obligations = append(s.obligations, ob)
	s.persistLocked(ctx)
	return ob, nil
}

// List returns a copy of the register in insertion order.
func (s *Store) List(_ context.Context) []model.Obligation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Obligation, len(s.obligations))
	copy(out, s.obligations)
	return out
}

// Get returns the obligation with the given ID.
func (s *Store) Get(_ context.Context, id string) (model.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ob := range s.obligations {
		if ob.ID == id {
			return ob, nil
		}
	}
	return model.Obligation{}, model.NewNotFoundError(
		fmt.Sprintf("obligation %q not found", id),
	)
}

// Seeded reports whether the starter register has been loaded. Read by
// the setup calculator's obligationsSeed predicate.
func (s *Store) Seeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seeded
}

// Len returns the register size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.obligations)
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.states == nil {
		return
	}
	data, err := json.Marshal(snapshot{Seeded: s.seeded, Obligations: s.obligations})
	if err != nil {
		s.logger.Error("obligations snapshot marshal failed", zap.Error(err))
		return
	}
	if err := s.states.Save(ctx, persistence.NameObligations, data); err != nil {
		s.logger.Warn("obligations snapshot save failed", zap.Error(err))
	}
}
