package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corecomply/corecomply/model"
)

func (a *API) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers := a.Registers.Suppliers(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{
		"suppliers": suppliers,
		"total":     len(suppliers),
	})
}

func (a *API) handleAddSupplier(w http.ResponseWriter, r *http.Request) {
	var sup model.Supplier
	if err := decodeJSON(r, &sup); err != nil {
		WriteError(w, err)
		return
	}
	added, err := a.Registers.AddSupplier(r.Context(), sup)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, added)
}

func (a *API) handleReviewSupplier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "supplierId")

	var req struct {
		RiskRating string `json:"risk_rating"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	sup, err := a.Registers.ReviewSupplier(r.Context(), id, req.RiskRating)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sup)
}

func (a *API) handleRemoveSupplier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "supplierId")
	if err := a.Registers.RemoveSupplier(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListNonconformities(w http.ResponseWriter, r *http.Request) {
	ncs := a.Registers.Nonconformities(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{
		"nonconformities": ncs,
		"total":           len(ncs),
	})
}

func (a *API) handleRaiseNonconformity(w http.ResponseWriter, r *http.Request) {
	var nc model.Nonconformity
	if err := decodeJSON(r, &nc); err != nil {
		WriteError(w, err)
		return
	}
	raised, err := a.Registers.RaiseNonconformity(r.Context(), nc)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, raised)
}

func (a *API) handleAddAction(w http.ResponseWriter, r *http.Request) {
	ncID := chi.URLParam(r, "ncId")

	var action model.CorrectiveAction
	if err := decodeJSON(r, &action); err != nil {
		WriteError(w, err)
		return
	}

	nc, err := a.Registers.AddAction(r.Context(), ncID, action)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, nc)
}

func (a *API) handleCompleteAction(w http.ResponseWriter, r *http.Request) {
	ncID := chi.URLParam(r, "ncId")
	actionID := chi.URLParam(r, "actionId")

	nc, err := a.Registers.CompleteAction(r.Context(), ncID, actionID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, nc)
}

func (a *API) handleCloseNonconformity(w http.ResponseWriter, r *http.Request) {
	ncID := chi.URLParam(r, "ncId")

	nc, err := a.Registers.CloseNonconformity(r.Context(), ncID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, nc)
}
