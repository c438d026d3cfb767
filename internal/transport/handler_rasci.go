package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/corecomply/corecomply/model"
)

// rasciStatusResponse is the full adoption view: one grouped entry per
// control domain plus adoption metadata.
type rasciStatusResponse struct {
	Adopted   bool                                            `json:"adopted"`
	AdoptedAt *time.Time                                      `json:"adopted_at,omitempty"`
	Domains   map[model.ControlDomain]model.GroupedAssignments `json:"domains"`
}

func (a *API) handleListRASCI(w http.ResponseWriter, _ *http.Request) {
	resp := rasciStatusResponse{
		Adopted: a.RASCI.Adopted(),
		Domains: make(map[model.ControlDomain]model.GroupedAssignments, len(model.AllControlDomains)),
	}
	if at, ok := a.RASCI.AdoptedAt(); ok {
		resp.AdoptedAt = &at
	}
	for _, domain := range model.AllControlDomains {
		resp.Domains[domain] = a.RASCI.RasciFor(string(domain))
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (a *API) handleGetRASCI(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	WriteJSON(w, http.StatusOK, a.RASCI.RasciFor(key))
}

func (a *API) handleAdoptRASCI(w http.ResponseWriter, r *http.Request) {
	directory := a.Org.KeyPersonnel()
	if len(directory) == 0 {
		WriteError(w, model.NewConflictError(
			"no key personnel assigned; set personnel before adopting templates"))
		return
	}
	a.RASCI.AdoptFromKeyPersonnel(r.Context(), directory)

	at, _ := a.RASCI.AdoptedAt()
	WriteJSON(w, http.StatusOK, map[string]any{
		"adopted":    true,
		"adopted_at": at,
	})
}
