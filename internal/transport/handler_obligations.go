package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corecomply/corecomply/model"
)

type obligationListResponse struct {
	Obligations []model.Obligation `json:"obligations"`
	Total       int                `json:"total"`
	Seeded      bool               `json:"seeded"`
}

func (a *API) handleListObligations(w http.ResponseWriter, r *http.Request) {
	obs := a.Obligations.List(r.Context())
	WriteJSON(w, http.StatusOK, obligationListResponse{
		Obligations: obs,
		Total:       len(obs),
		Seeded:      a.Obligations.Seeded(),
	})
}

func (a *API) handleGetObligation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "obligationId")
	ob, err := a.Obligations.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ob)
}

func (a *API) handleAddObligation(w http.ResponseWriter, r *http.Request) {
	var ob model.Obligation
	if err := decodeJSON(r, &ob); err != nil {
		WriteError(w, err)
		return
	}
	added, err := a.Obligations.Add(r.Context(), ob)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, added)
}

func (a *API) handleSeedObligations(w http.ResponseWriter, r *http.Request) {
	added := a.Obligations.SeedDefaults(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{
		"added":  added,
		"seeded": true,
	})
}
