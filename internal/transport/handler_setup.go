package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corecomply/corecomply/model"
)

// setupStepView is one wizard row in the status response.
type setupStepView struct {
	Key         model.StepKey   `json:"key"`
	Title       string          `json:"title"`
	DependsOn   []model.StepKey `json:"dependsOn,omitempty"`
	Complete    bool            `json:"complete"`
	Visited     bool            `json:"visited"`
	Outstanding []model.StepKey `json:"outstanding,omitempty"`
}

type setupStatusResponse struct {
	Completion int             `json:"completion"`
	Steps      []setupStepView `json:"steps"`
}

func (a *API) handleSetupStatus(w http.ResponseWriter, _ *http.Request) {
	steps := a.Setup.Steps()
	views := make([]setupStepView, 0, len(steps))
	for _, step := range steps {
		views = append(views, setupStepView{
			Key:         step.Key,
			Title:       step.Title,
			DependsOn:   step.DependsOn,
			Complete:    a.Setup.StepComplete(step.Key),
			Visited:     a.Setup.Visited(step.Key),
			Outstanding: a.Setup.OutstandingDependencies(step.Key),
		})
	}
	WriteJSON(w, http.StatusOK, setupStatusResponse{
		Completion: a.Setup.Completion(),
		Steps:      views,
	})
}

func (a *API) handleVisitStep(w http.ResponseWriter, r *http.Request) {
	key := model.StepKey(chi.URLParam(r, "stepKey"))
	if _, ok := a.Setup.GetStep(key); !ok {
		WriteNotFound(w, "unknown setup step "+string(key))
		return
	}
	completion := a.Setup.VisitStep(r.Context(), key)
	WriteJSON(w, http.StatusOK, map[string]any{
		"completion": completion,
		"visited":    a.Setup.VisitedSteps(),
	})
}
