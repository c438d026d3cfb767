package integration

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestSecurity_NoAuthHeader_Returns401(t *testing.T) {
	h := NewTestHarness(t)

	endpoints := []string{
		"/api/v1/evidence",
		"/api/v1/obligations",
		"/api/v1/rasci",
		"/api/v1/setup",
		"/api/v1/org/profile",
		"/api/v1/registers/suppliers",
	}

	for _, ep := range endpoints {
		t.Run(ep, func(t *testing.T) {
			resp := h.GET(ep, "")
			h.AssertStatus(t, resp, http.StatusUnauthorized)
		})
	}
}

func TestSecurity_PublicEndpoints_NoAuthRequired(t *testing.T) {
	h := NewTestHarness(t)

	resp := h.GET("/health", "")
	h.AssertStatus(t, resp, http.StatusOK)
}

func TestSecurity_ExpiredJWT_Returns401(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateExpiredToken(OfficerClaims())

	resp := h.GET("/api/v1/setup", token)
	h.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestSecurity_InvalidSignature_Returns401(t *testing.T) {
	h := NewTestHarness(t)

	// Token signed with a different RSA key, not in the JWKS.
	differentKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	claims := jwt.MapClaims{
		"iss":       "https://auth.test.corecomply.dev",
		"aud":       "corecomply-test",
		"sub":       "user-1",
		"tenant_id": "acme-au",
		"email":     "user@acme.com",
		"roles":     []any{"compliance_officer"},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-key-1"
	signed, err := token.SignedString(differentKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	resp := h.GET("/api/v1/setup", signed)
	h.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestSecurity_NoneAlgorithm_Returns401(t *testing.T) {
	h := NewTestHarness(t)

	// Craft a "none" algorithm token manually.
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"admin","tenant_id":"acme-au","iss":"https://auth.test.corecomply.dev","aud":"corecomply-test","roles":["admin"]}`))
	noneToken := header + "." + payload + "."

	resp := h.GET("/api/v1/setup", noneToken)
	h.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestSecurity_MalformedToken_Returns401(t *testing.T) {
	h := NewTestHarness(t)

	resp := h.GET("/api/v1/setup", "not.a.valid.jwt.token")
	h.AssertStatus(t, resp, http.StatusUnauthorized)
}

func TestSecurity_ValidJWT_Returns200(t *testing.T) {
	h := NewTestHarness(t)
	token := h.GenerateToken(OfficerClaims())

	resp := h.GET("/api/v1/setup", token)
	h.AssertStatus(t, resp, http.StatusOK)
}

func TestSecurity_SecurityHeadersPresent(t *testing.T) {
	h := NewTestHarness(t)

	resp := h.GET("/health", "")
	defer resp.Body.Close()

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := resp.Header.Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if resp.Header.Get("X-Correlation-Id") == "" {
		t.Error("X-Correlation-Id header missing")
	}
}
