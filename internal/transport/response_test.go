package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corecomply/corecomply/model"
)

func TestWriteError_statusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.NewBadRequestError("bad"), http.StatusBadRequest},
		{model.NewUnauthorizedError("no"), http.StatusUnauthorized},
		{model.NewForbiddenError("no"), http.StatusForbidden},
		{model.NewNotFoundError("gone"), http.StatusNotFound},
		{model.NewConflictError("clash"), http.StatusConflict},
		{model.NewValidationError(nil), http.StatusUnprocessableEntity},
		{model.NewInternalError(), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("WriteError(%v) status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestWriteError_envelopeShape(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, model.NewNotFoundError("evidence artifact missing"))

	var resp struct {
		Error *model.ErrorEnvelope `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != model.ErrNotFound {
		t.Errorf("error envelope = %+v, want NOT_FOUND", resp.Error)
	}
	if resp.Error.Message != "evidence artifact missing" {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestWriteJSON_headers(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"ok": "yes"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}
