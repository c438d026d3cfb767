// Package integration provides a reusable test harness for end-to-end
// testing of the CoreComply server. It starts a full HTTP server with
// in-memory stores and a test JWT issuer.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/corecomply/corecomply/internal/config"
	"github.com/corecomply/corecomply/internal/discovery"
	"github.com/corecomply/corecomply/internal/evidence"
	"github.com/corecomply/corecomply/internal/matching"
	"github.com/corecomply/corecomply/internal/obligations"
	"github.com/corecomply/corecomply/internal/org"
	"github.com/corecomply/corecomply/internal/persistence"
	"github.com/corecomply/corecomply/internal/rasci"
	"github.com/corecomply/corecomply/internal/register"
	"github.com/corecomply/corecomply/internal/setup"
	"github.com/corecomply/corecomply/internal/transport"
	"github.com/corecomply/corecomply/model"
)

// TestHarness encapsulates a fully wired CoreComply instance for
// integration testing.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server
	issuer *tokenIssuer

	// Internal components exposed for advanced test scenarios.
	Evidence    *evidence.Store
	Obligations *obligations.Store
	RASCI       *rasci.Store
	Org         *org.Store
	Registers   *register.Store
	Setup       *setup.Calculator
	States      persistence.StateStore

	cfg *config.Config
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	states         persistence.StateStore
	adapterTimeout time.Duration
	handlerTimeout time.Duration
}

// WithStateStore injects a shared snapshot store. Passing the same store
// to a second harness simulates a server restart with rehydration.
func WithStateStore(states persistence.StateStore) HarnessOption {
	return func(c *harnessConfig) {
		c.states = states
	}
}

// WithAdapterTimeout bounds each discovery adapter invocation.
func WithAdapterTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.adapterTimeout = d
	}
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.handlerTimeout = d
	}
}

// NewTestHarness creates and starts a full test instance. The server is
// automatically cleaned up when the test completes.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		adapterTimeout: 5 * time.Second,
		handlerTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(hc)
	}
	if hc.states == nil {
		hc.states = persistence.NewMemoryStateStore()
	}

	ctx := context.Background()
	h := &TestHarness{t: t, States: hc.states}

	h.Evidence = evidence.NewStore(ctx, hc.states, nil)
	h.Obligations = obligations.NewStore(ctx, hc.states, nil)
	h.RASCI = rasci.NewStore(ctx, hc.states, nil)
	h.Org = org.NewStore(ctx, hc.states, nil)
	h.Registers = register.NewStore(ctx, hc.states, nil)

	// Personnel hand-over re-expands adopted templates, mirroring the
	// production wiring.
	h.Org.OnPersonnelChange(func(ctx context.Context, directory model.RoleDirectory) {
		if h.RASCI.Adopted() {
			h.RASCI.AdoptFromKeyPersonnel(ctx, directory)
		}
	})

	h.Setup = setup.NewCalculator(ctx, setup.ReadPorts{
		IntegrationsConnected:  h.Org.IntegrationsConnected,
		CompanyProfileComplete: h.Org.ProfileComplete,
		PeopleLoaded:           h.Org.PeopleLoaded,
		RASCIAdopted:           h.RASCI.Adopted,
		ObligationsSeeded:      h.Obligations.Seeded,
		TimetableConfigured:    h.Org.TimetableConfigured,
		EvidenceCollected:      h.Evidence.HasEvidence,
	}, hc.states, nil)

	orchestrator := discovery.NewOrchestrator(
		discovery.DefaultAdapters(), matching.NewMatcher(), h.Evidence, nil,
		discovery.WithAdapterTimeout(hc.adapterTimeout),
	)

	h.issuer = newTokenIssuer(t)

	h.cfg = config.Defaults()
	h.cfg.Server.HandlerTimeout = hc.handlerTimeout
	h.cfg.Identity.Issuer = h.issuer.Issuer()
	h.cfg.Identity.Audience = h.issuer.Audience()
	h.cfg.Identity.JWKSURL = h.issuer.JWKSURL()

	jwks := transport.NewJWKSClient(h.issuer.JWKSURL(), 1*time.Hour)

	router := transport.NewRouter(transport.Dependencies{
		Config:       h.cfg,
		Authenticate: transport.JWTAuthenticator(h.cfg.Identity, jwks),
		API: &transport.API{
			Evidence:     h.Evidence,
			Orchestrator: orchestrator,
			Obligations:  h.Obligations,
			RASCI:        h.RASCI,
			Setup:        h.Setup,
			Org:          h.Org,
			Registers:    h.Registers,
			Discovery:    h.cfg.Discovery,
		},
	})

	h.server = httptest.NewServer(router)
	t.Cleanup(func() {
		h.server.Close()
	})

	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// GenerateToken creates a valid JWT token with the given claims.
func (h *TestHarness) GenerateToken(claims TestClaims) string {
	return h.issuer.GenerateToken(claims)
}

// GenerateExpiredToken creates a JWT that has already expired.
func (h *TestHarness) GenerateExpiredToken(claims TestClaims) string {
	return h.issuer.GenerateExpiredToken(claims)
}

// --- HTTP client helpers ---

// GET performs an authenticated GET request.
func (h *TestHarness) GET(path, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("GET", path, nil, token)
}

// POST performs an authenticated POST request with a JSON body.
func (h *TestHarness) POST(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("POST", path, body, token)
}

// PUT performs an authenticated PUT request with a JSON body.
func (h *TestHarness) PUT(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("PUT", path, body, token)
}

// DELETE performs an authenticated DELETE request.
func (h *TestHarness) DELETE(path, token string) *http.Response {
	h.t.Helper()
	return h.doRequest("DELETE", path, nil, token)
}

func (h *TestHarness) doRequest(method, path string, body any, token string) *http.Response {
	h.t.Helper()

	url := h.server.URL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// AssertStatus checks that the response has the expected status code.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Errorf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
}

// AssertJSON checks that the response has the expected status and parses the body.
func (h *TestHarness) AssertJSON(t *testing.T, resp *http.Response, expected int, target any) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
	h.ParseJSON(resp, target)
}

// --- Default test claims ---

// OfficerClaims returns TestClaims for a compliance officer user.
func OfficerClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-officer",
		TenantID:  "acme-au",
		Email:     "officer@acme.example.com",
		Roles:     []string{"compliance_officer"},
	}
}

// AdminClaims returns TestClaims for a tenant administrator.
func AdminClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-admin",
		TenantID:  "acme-au",
		Email:     "admin@acme.example.com",
		Roles:     []string{"admin"},
	}
}

// CompanyProfileFixture returns a valid company profile for requests.
func CompanyProfileFixture() model.CompanyProfile {
	return model.CompanyProfile{
		LegalName:   "Acme Holdings Pty Ltd",
		TradingName: "Acme",
		ABN:         "51 824 753 556",
		States:      []string{"NSW", "VIC"},
	}
}

// FormatJSON converts a value to indented JSON for test output.
func FormatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
