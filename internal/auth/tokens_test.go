package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-dyntax/internal/auth"
	"github.com/noah-isme/toko-dyntax/internal/common"
)

func newTokens(t *testing.T) *auth.Tokens {
	t.Helper()
	tokens, err := auth.NewTokens(auth.Config{
		Secret:    "test-secret-with-enough-entropy",
		Issuer:    "toko",
		Audience:  "toko-admin",
		ClockSkew: time.Second,
		TTL:       time.Minute,
	})
	require.NoError(t, err)
	return tokens
}

func TestIssueAndParse(t *testing.T) {
	tokens := newTokens(t)
	signed, expires, err := tokens.Issue("admin-1", []string{auth.ManageOptions})
	require.NoError(t, err)
	require.True(t, expires.After(time.Now()))

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, "admin-1", claims.Subject)
	require.Equal(t, []string{auth.ManageOptions}, claims.Capabilities)
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	tokens := newTokens(t)

	other, err := auth.NewTokens(auth.Config{Secret: "another-secret", Issuer: "toko", Audience: "toko-admin"})
	require.NoError(t, err)
	foreign, _, err := other.Issue("admin-1", nil)
	require.NoError(t, err)
	_, err = tokens.Parse(foreign)
	require.Error(t, err)

	past := time.Now().Add(-time.Hour)
	tokens.WithNow(func() time.Time { return past })
	stale, _, err := tokens.Issue("admin-1", nil)
	require.NoError(t, err)
	tokens.WithNow(time.Now)
	_, err = tokens.Parse(stale)
	require.Error(t, err)

	_, err = tokens.Parse("garbage")
	require.Error(t, err)
	_, err = tokens.Parse("")
	require.Error(t, err)
}

func TestNewTokensRequiresSecret(t *testing.T) {
	_, err := auth.NewTokens(auth.Config{})
	require.Error(t, err)
}

func TestMiddlewareCapabilities(t *testing.T) {
	tokens := newTokens(t)
	mw := auth.Middleware{Tokens: tokens, AccessCookie: "admin_token"}
	var subject string
	handler := mw.RequireAuth(auth.RequireCapability(auth.ManageOptions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	admin, _, err := tokens.Issue("admin-1", []string{auth.ManageOptions})
	require.NoError(t, err)
	shopper, _, err := tokens.Issue("shopper-1", []string{"read"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dynamic-taxes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, `Bearer realm="admin"`, rec.Header().Get("WWW-Authenticate"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/dynamic-taxes", nil)
	req.Header.Set("Authorization", "Bearer "+shopper)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/dynamic-taxes", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "admin-1", subject)

	req = httptest.NewRequest(http.MethodGet, "/admin/dynamic-taxes", nil)
	req.AddCookie(&http.Cookie{Name: "admin_token", Value: admin})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
