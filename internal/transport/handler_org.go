package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corecomply/corecomply/model"
)

func (a *API) handleGetProfile(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, a.Org.Profile())
}

func (a *API) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	var profile model.CompanyProfile
	if err := decodeJSON(r, &profile); err != nil {
		WriteError(w, err)
		return
	}
	if err := a.Org.SetProfile(r.Context(), profile); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, a.Org.Profile())
}

func (a *API) handleListPeople(w http.ResponseWriter, r *http.Request) {
	people := a.Org.People(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{
		"people": people,
		"total":  len(people),
	})
}

func (a *API) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var p model.Person
	if err := decodeJSON(r, &p); err != nil {
		WriteError(w, err)
		return
	}
	added, err := a.Org.AddPerson(r.Context(), p)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, added)
}

func (a *API) handleGetPersonnel(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, a.Org.KeyPersonnel())
}

func (a *API) handleSetPersonnel(w http.ResponseWriter, r *http.Request) {
	var directory model.RoleDirectory
	if err := decodeJSON(r, &directory); err != nil {
		WriteError(w, err)
		return
	}

	known := make(map[model.RoleKey]bool, len(model.AllRoleKeys))
	for _, key := range model.AllRoleKeys {
		known[key] = true
	}
	for key := range directory {
		if !known[key] {
			WriteValidationError(w, []model.FieldError{
				{Field: string(key), Code: "unknown", Message: "unknown role key " + string(key)},
			})
			return
		}
	}

	a.Org.SetKeyPersonnel(r.Context(), directory)
	WriteJSON(w, http.StatusOK, a.Org.KeyPersonnel())
}

func (a *API) handleListIntegrations(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, a.Org.Integrations())
}

func (a *API) handleSetIntegration(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req struct {
		Connected bool `json:"connected"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	a.Org.SetIntegration(r.Context(), name, req.Connected)
	WriteJSON(w, http.StatusOK, a.Org.Integrations())
}

func (a *API) handleGetTimetable(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"entries": a.Org.Timetable(),
	})
}

func (a *API) handleSetTimetable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entries []model.TimetableEntry `json:"entries"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	a.Org.SetTimetable(r.Context(), req.Entries)
	WriteJSON(w, http.StatusOK, map[string]any{
		"entries": a.Org.Timetable(),
	})
}
