package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/corecomply/corecomply/internal/config"
	"github.com/corecomply/corecomply/internal/discovery"
	"github.com/corecomply/corecomply/internal/evidence"
	"github.com/corecomply/corecomply/internal/matching"
	"github.com/corecomply/corecomply/internal/obligations"
	"github.com/corecomply/corecomply/internal/org"
	"github.com/corecomply/corecomply/internal/rasci"
	"github.com/corecomply/corecomply/internal/register"
	"github.com/corecomply/corecomply/internal/setup"
	"github.com/corecomply/corecomply/model"
)

// newTestRouter wires the full API over in-memory stores with
// authentication disabled.
func newTestRouter(t *testing.T) (chi.Router, *API) {
	t.Helper()
	ctx := context.Background()

	evidenceStore := evidence.NewStore(ctx, nil, nil)
	obligationStore := obligations.NewStore(ctx, nil, nil)
	rasciStore := rasci.NewStore(ctx, nil, nil)
	orgStore := org.NewStore(ctx, nil, nil)
	registerStore := register.NewStore(ctx, nil, nil)

	calc := setup.NewCalculator(ctx, setup.ReadPorts{
		IntegrationsConnected:  orgStore.IntegrationsConnected,
		CompanyProfileComplete: orgStore.ProfileComplete,
		PeopleLoaded:           orgStore.PeopleLoaded,
		RASCIAdopted:           rasciStore.Adopted,
		ObligationsSeeded:      obligationStore.Seeded,
		TimetableConfigured:    orgStore.TimetableConfigured,
		EvidenceCollected:      evidenceStore.HasEvidence,
	}, nil, nil)

	orch := discovery.NewOrchestrator(
		discovery.DefaultAdapters(), matching.NewMatcher(), evidenceStore, nil,
		discovery.WithAdapterTimeout(5*time.Second),
	)

	cfg := config.Defaults()
	api := &API{
		Evidence:     evidenceStore,
		Orchestrator: orch,
		Obligations:  obligationStore,
		RASCI:        rasciStore,
		Setup:        calc,
		Org:          orgStore,
		Registers:    registerStore,
		Discovery:    cfg.Discovery,
	}

	return NewRouter(Dependencies{Config: cfg, API: api}), api
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestRouter_publicEndpointsBypassAuth(t *testing.T) {
	// Auth is a hard deny to prove public routes skip it.
	_, api := newTestRouter(t)
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			WriteError(w, model.NewUnauthorizedError("denied"))
		})
	}
	r := NewRouter(Dependencies{Config: config.Defaults(), API: api, Authenticate: deny})

	for _, path := range []string{"/health", "/ready"} {
		rec := doJSON(t, r, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}

	rec := doJSON(t, r, http.MethodGet, "/api/v1/evidence", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("/api/v1/evidence status = %d, want 401", rec.Code)
	}
}

func TestRouter_correlationIDHeader(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/health", nil)
	if rec.Header().Get("X-Correlation-Id") == "" {
		t.Error("X-Correlation-Id header missing")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-Id", "corr-42")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Correlation-Id"); got != "corr-42" {
		t.Errorf("X-Correlation-Id = %q, want corr-42", got)
	}
}

func TestDiscoveryRun_requiresSeededRegister(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/discovery/run", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 before seeding", rec.Code)
	}
}

func TestOnboardingFlow_discoveryProducesEvidence(t *testing.T) {
	r, _ := newTestRouter(t)

	// Seed the register.
	rec := doJSON(t, r, http.MethodPost, "/api/v1/obligations/seed", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed status = %d, want 200", rec.Code)
	}
	seed := decodeBody[map[string]any](t, rec)
	if seed["added"].(float64) == 0 {
		t.Fatal("seeding should add obligations")
	}

	// Set a footprint so state-scoped adapters have jurisdictions.
	rec = doJSON(t, r, http.MethodPut, "/api/v1/org/profile", model.CompanyProfile{
		LegalName: "Acme Holdings Pty Ltd",
		ABN:       "51 824 753 556",
		States:    []string{"NSW", "VIC"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d: %s", rec.Code, rec.Body.String())
	}

	// Run discovery.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/discovery/run", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[discovery.RunResult](t, rec)
	if result.ArtifactsAdded == 0 {
		t.Fatal("discovery should add artifacts")
	}

	// Artifacts show up in the evidence list.
	rec = doJSON(t, r, http.MethodGet, "/api/v1/evidence", nil)
	list := decodeBody[evidenceListResponse](t, rec)
	if list.Total != result.ArtifactsAdded {
		t.Errorf("evidence total = %d, want %d", list.Total, result.ArtifactsAdded)
	}

	// Setup reflects the progress: profile, seed, and discovery done.
	rec = doJSON(t, r, http.MethodGet, "/api/v1/setup", nil)
	status := decodeBody[setupStatusResponse](t, rec)
	if status.Completion < 42 {
		t.Errorf("completion = %d, want at least 42", status.Completion)
	}
}

func TestEvidenceDisposition_roundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/obligations/seed", nil)
	doJSON(t, r, http.MethodPost, "/api/v1/discovery/run", nil)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/evidence", nil)
	list := decodeBody[evidenceListResponse](t, rec)
	if list.Total == 0 {
		t.Fatal("expected artifacts after discovery")
	}
	id := list.Artifacts[0].ID

	rec = doJSON(t, r, http.MethodPost, "/api/v1/evidence/"+id+"/disposition",
		map[string]any{"accepted": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("disposition status = %d: %s", rec.Code, rec.Body.String())
	}
	artifact := decodeBody[model.EvidenceArtifact](t, rec)
	if artifact.Accepted == nil || !*artifact.Accepted {
		t.Error("artifact should be accepted")
	}

	// Disposition without a verdict is rejected.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/evidence/"+id+"/disposition",
		map[string]any{})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty disposition status = %d, want 422", rec.Code)
	}
}

func TestEvidenceRelink_rejectsUnknownObligation(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/api/v1/obligations/seed", nil)
	doJSON(t, r, http.MethodPost, "/api/v1/discovery/run", nil)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/evidence", nil)
	list := decodeBody[evidenceListResponse](t, rec)
	if list.Total == 0 {
		t.Fatal("expected artifacts after discovery")
	}
	id := list.Artifacts[0].ID

	rec = doJSON(t, r, http.MethodPut, "/api/v1/evidence/"+id+"/links",
		map[string]any{"obligation_ids": []string{"no-such-obligation"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("relink status = %d, want 422", rec.Code)
	}
}

func TestEvidenceRemove(t *testing.T) {
	r, api := newTestRouter(t)
	ctx := context.Background()

	api.Evidence.Add(ctx, model.EvidenceArtifact{ID: "art-1", Title: "Payslip batch"})

	rec := doJSON(t, r, http.MethodDelete, "/api/v1/evidence/art-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	rec = doJSON(t, r, http.MethodGet, "/api/v1/evidence/art-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestRASCIAdopt_requiresPersonnel(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/rasci/adopt", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("adopt status = %d, want 409 without personnel", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPut, "/api/v1/org/personnel", map[string]string{
		"CEO":             "u-ceo",
		"ComplianceOwner": "u-compliance",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("personnel status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/rasci/adopt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("adopt status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/rasci/governance", nil)
	grouped := decodeBody[model.GroupedAssignments](t, rec)
	if len(grouped.A) == 0 {
		t.Error("governance should have an accountable assignment after adoption")
	}
}

func TestRASCIList_allDomainsPresent(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/rasci", nil)
	resp := decodeBody[rasciStatusResponse](t, rec)
	if resp.Adopted {
		t.Error("adopted should be false initially")
	}
	if len(resp.Domains) != len(model.AllControlDomains) {
		t.Errorf("domains = %d, want %d", len(resp.Domains), len(model.AllControlDomains))
	}
}

func TestSetPersonnel_rejectsUnknownRole(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPut, "/api/v1/org/personnel", map[string]string{
		"Wizard": "u-1",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 for unknown role", rec.Code)
	}
}

func TestVisitStep(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/setup/steps/companyProfile/visit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("visit status = %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/setup/steps/bogus/visit", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("bogus step status = %d, want 404", rec.Code)
	}
}

func TestObligationAdd_validation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/obligations", model.Obligation{
		Title:      "Lodge monthly payroll tax return",
		ControlRef: "PRT-LODGE-002",
		Tags:       []string{"payroll-tax"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	added := decodeBody[model.Obligation](t, rec)
	if added.ID == "" {
		t.Error("added obligation should get an ID")
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/obligations", model.Obligation{})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank title status = %d, want 422", rec.Code)
	}
}

func TestSupplierLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/registers/suppliers", model.Supplier{
		Name:    "PayCloud Pty Ltd",
		Service: "payroll software",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add supplier status = %d: %s", rec.Code, rec.Body.String())
	}
	sup := decodeBody[model.Supplier](t, rec)
	if sup.RiskRating != model.RiskMedium {
		t.Errorf("risk = %q, want default medium", sup.RiskRating)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/registers/suppliers/"+sup.ID+"/review",
		map[string]string{"risk_rating": model.RiskHigh})
	if rec.Code != http.StatusOK {
		t.Fatalf("review status = %d: %s", rec.Code, rec.Body.String())
	}
	reviewed := decodeBody[model.Supplier](t, rec)
	if reviewed.RiskRating != model.RiskHigh || reviewed.LastReviewed == nil {
		t.Error("review should update rating and stamp LastReviewed")
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/registers/suppliers/"+sup.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
}

func TestNonconformityLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/registers/nonconformities", model.Nonconformity{
		Title:      "Super paid after quarterly deadline",
		ControlRef: "SUPER-SG-001",
		Severity:   "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("raise status = %d: %s", rec.Code, rec.Body.String())
	}
	nc := decodeBody[model.Nonconformity](t, rec)
	if nc.Status != model.NCOpen {
		t.Fatalf("status = %q, want open", nc.Status)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/registers/nonconformities/"+nc.ID+"/actions",
		model.CorrectiveAction{Description: "Lodge SGC statement", DueDate: time.Now().AddDate(0, 1, 0)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add action status = %d: %s", rec.Code, rec.Body.String())
	}
	nc = decodeBody[model.Nonconformity](t, rec)
	actionID := nc.Actions[0].ID

	// Closing with an open action conflicts.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/registers/nonconformities/"+nc.ID+"/close", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("premature close status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost,
		"/api/v1/registers/nonconformities/"+nc.ID+"/actions/"+actionID+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete action status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/registers/nonconformities/"+nc.ID+"/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close status = %d: %s", rec.Code, rec.Body.String())
	}
	closed := decodeBody[model.Nonconformity](t, rec)
	if closed.Status != model.NCClosed || closed.ClosedAt == nil {
		t.Error("nonconformity should be closed with a timestamp")
	}
}

func TestProfileValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPut, "/api/v1/org/profile", model.CompanyProfile{
		LegalName: "Acme",
		ABN:       "123", // not 11 digits
		States:    []string{"NSW"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad ABN status = %d, want 422", rec.Code)
	}
}

func TestIntegrationToggle(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPut, "/api/v1/org/integrations/stp",
		map[string]bool{"connected": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	integrations := decodeBody[map[string]bool](t, rec)
	if !integrations["stp"] {
		t.Error("stp should be connected")
	}
}
