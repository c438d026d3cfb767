// Package setup evaluates the onboarding wizard: a fixed, ordered step
// list whose completion is derived live from the other stores, plus a
// visited-step set that survives restarts.
package setup

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/corecomply/corecomply/internal/persistence"
	"github.com/corecomply/corecomply/model"
)

// Step is one wizard entry. DependsOn lists soft prerequisites: they
// drive UI nudges only and never block completion.
type Step struct {
	Key       model.StepKey   `json:"key"`
	Title     string          `json:"title"`
	DependsOn []model.StepKey `json:"dependsOn,omitempty"`
}

// ReadPorts carries the zero-argument predicates the calculator reads.
// Each is a live read against the owning store; the calculator never
// caches their results. The review step has no port: it is a terminal
// manual action and always counts incomplete.
type ReadPorts struct {
	IntegrationsConnected  func() bool
	CompanyProfileComplete func() bool
	PeopleLoaded           func() bool
	RASCIAdopted           func() bool
	ObligationsSeeded      func() bool
	TimetableConfigured    func() bool
	EvidenceCollected      func() bool
}

// completableSteps is the denominator of the percentage. The review
// step is excluded by construction.
const completableSteps = 7

// orderedSteps is the fixed wizard order.
var orderedSteps = []Step{
	{Key: model.StepIntegrations, Title: "Connect integrations"},
	{Key: model.StepCompanyProfile, Title: "Company profile"},
	{Key: model.StepPeople, Title: "Load people", DependsOn: []model.StepKey{model.StepCompanyProfile}},
	{Key: model.StepRASCI, Title: "Adopt RASCI templates", DependsOn: []model.StepKey{model.StepPeople}},
	{Key: model.StepObligationsSeed, Title: "Seed obligation register", DependsOn: []model.StepKey{model.StepCompanyProfile}},
	{Key: model.StepTimetable, Title: "Configure compliance timetable", DependsOn: []model.StepKey{model.StepObligationsSeed}},
	{Key: model.StepEvidenceDiscovery, Title: "Run evidence discovery", DependsOn: []model.StepKey{model.StepIntegrations, model.StepObligationsSeed}},
	{Key: model.StepReview, Title: "Review and finish", DependsOn: []model.StepKey{model.StepRASCI, model.StepEvidenceDiscovery}},
}

// Calculator owns the visited set and derives completion on demand.
type Calculator struct {
	mu      sync.RWMutex
	visited map[model.StepKey]struct{}
	ports   ReadPorts
	states  persistence.StateStore
	logger  *zap.Logger
}

// snapshot is the persisted form. The visited set is stored as a
// sorted list and converted back to a set on rehydration.
type snapshot struct {
	Visited []model.StepKey `json:"visited"`
}

// NewCalculator builds a calculator over the given read ports,
// rehydrating the visited set when a snapshot exists.
func NewCalculator(ctx context.Context, ports ReadPorts, states persistence.StateStore, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Calculator{
		visited: make(map[model.StepKey]struct{}),
		ports:   ports,
		states:  states,
		logger:  logger,
	}

	if states != nil {
		data, ok, err := states.Load(ctx, persistence.NameSetup)
		if err != nil {
			logger.Warn("setup snapshot load failed", zap.Error(err))
		} else if ok {
			var snap snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				logger.Warn("setup snapshot corrupt, starting empty", zap.Error(err))
			} else {
				c.visited = visitedSet(snap.Visited)
			}
		}
	}
	return c
}

// Steps returns the wizard steps in fixed order.
func (c *Calculator) Steps() []Step {
	out := make([]Step, len(orderedSteps))
	copy(out, orderedSteps)
	return out
}

// GetStep looks a step up by key. The second return is false for
// unknown keys; callers handle absence explicitly.
func (c *Calculator) GetStep(key model.StepKey) (Step, bool) {
	for _, step := range orderedSteps {
		if step.Key == key {
			return step, true
		}
	}
	return Step{}, false
}

// StepComplete evaluates a single step's live predicate.
func (c *Calculator) StepComplete(key model.StepKey) bool {
	switch key {
	case model.StepIntegrations:
		return c.ports.IntegrationsConnected()
	case model.StepCompanyProfile:
		return c.ports.CompanyProfileComplete()
	case model.StepPeople:
		return c.ports.PeopleLoaded()
	case model.StepRASCI:
		return c.ports.RASCIAdopted()
	case model.StepObligationsSeed:
		return c.ports.ObligationsSeeded()
	case model.StepTimetable:
		return c.ports.TimetableConfigured()
	case model.StepEvidenceDiscovery:
		return c.ports.EvidenceCollected()
	default:
		// review, and any unknown key, never completes.
		return false
	}
}

// Completion derives the overall percentage from the live predicates.
// It reads no cached state and mutates nothing.
func (c *Calculator) Completion() int {
	complete := 0
	for _, step := range orderedSteps {
		if step.Key == model.StepReview {
			continue
		}
		if c.StepComplete(step.Key) {
			complete++
		}
	}
	return int(math.Round(100 * float64(complete) / completableSteps))
}

// VisitStep records a visit and recomputes completion. Visits
// accumulate into a set, so repeat visits are harmless. Unknown keys
// are ignored.
func (c *Calculator) VisitStep(ctx context.Context, key model.StepKey) int {
	if _, ok := c.GetStep(key); !ok {
		return c.Completion()
	}

	c.mu.Lock()
	if _, seen := c.visited[key]; !seen {
		c.visited[key] = struct{}{}
		c.persistLocked(ctx)
	}
	c.mu.Unlock()

	return c.Completion()
}

// Visited reports whether a step has been visited.
func (c *Calculator) Visited(key model.StepKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.visited[key]
	return ok
}

// VisitedSteps returns the visited set as a sorted list.
func (c *Calculator) VisitedSteps() []model.StepKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return visitedList(c.visited)
}

// OutstandingDependencies returns the step's soft prerequisites that
// are currently incomplete, in step order. The UI uses the result to
// nudge; an unmet dependency never blocks the step itself.
func (c *Calculator) OutstandingDependencies(key model.StepKey) []model.StepKey {
	step, ok := c.GetStep(key)
	if !ok {
		return nil
	}
	outstanding := []model.StepKey{}
	for _, dep := range step.DependsOn {
		if !c.StepComplete(dep) {
			outstanding = append(outstanding, dep)
		}
	}
	return outstanding
}

// visitedSet converts the persisted list form to the in-memory set.
func visitedSet(list []model.StepKey) map[model.StepKey]struct{} {
	set := make(map[model.StepKey]struct{}, len(list))
	for _, key := range list {
		set[key] = struct{}{}
	}
	return set
}

// visitedList converts the in-memory set to the sorted persisted form.
func visitedList(set map[model.StepKey]struct{}) []model.StepKey {
	list := make([]model.StepKey, 0, len(set))
	for key := range set {
		list = append(list, key)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// persistLocked replaces the durable snapshot. Callers hold the write
// lock.
func (c *Calculator) persistLocked(ctx context.Context) {
	if c.states == nil {
		return
	}
	data, err := json.Marshal(snapshot{Visited: visitedList(c.visited)})
	if err != nil {
		c.logger.Error("setup snapshot marshal failed", zap.Error(err))
		return
	}
	if err := c.states.Save(ctx, persistence.NameSetup, data); err != nil {
		c.logger.Warn("setup snapshot save failed", zap.Error(err))
	}
}
