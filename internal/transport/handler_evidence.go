package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corecomply/corecomply/model"
)

// evidenceListResponse wraps the artifact list with its count.
type evidenceListResponse struct {
	Artifacts []model.EvidenceArtifact `json:"artifacts"`
	Total     int                      `json:"total"`
}

func (a *API) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	artifacts := a.Evidence.List(r.Context())

	// Optional source filter, e.g. ?source=STP.
	if src := r.URL.Query().Get("source"); src != "" {
		filtered := artifacts[:0]
		for _, art := range artifacts {
			if string(art.Source) == src {
				filtered = append(filtered, art)
			}
		}
		artifacts = filtered
	}

	WriteJSON(w, http.StatusOK, evidenceListResponse{
		Artifacts: artifacts,
		Total:     len(artifacts),
	})
}

func (a *API) handleGetEvidence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "artifactId")
	artifact, err := a.Evidence.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, artifact)
}

func (a *API) handleEvidenceDisposition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "artifactId")

	var req struct {
		Accepted *bool `json:"accepted"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Accepted == nil {
		WriteValidationError(w, []model.FieldError{
			{Field: "accepted", Code: "required", Message: "accepted must be true or false"},
		})
		return
	}

	artifact, err := a.Evidence.SetDisposition(r.Context(), id, *req.Accepted)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, artifact)
}

func (a *API) handleEvidenceRelink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "artifactId")

	var req struct {
		ObligationIDs []string `json:"obligation_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	// Linked obligations must exist in the register.
	for _, obID := range req.ObligationIDs {
		if _, err := a.Obligations.Get(r.Context(), obID); err != nil {
			WriteValidationError(w, []model.FieldError{
				{Field: "obligation_ids", Code: "unknown", Message: "unknown obligation " + obID},
			})
			return
		}
	}

	artifact, err := a.Evidence.Relink(r.Context(), id, req.ObligationIDs)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, artifact)
}

func (a *API) handleRemoveEvidence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "artifactId")
	if err := a.Evidence.Remove(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
