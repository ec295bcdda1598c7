package security

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestCSRFMiddlewareBlocksMissingToken(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/dynamic-taxes", nil))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCSRFMiddlewareAllowsHeaderToken(t *testing.T) {
	handler := CSRF{Header: "X-CSRF-Token"}.Middleware(okHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodPost, "/admin/dynamic-taxes", nil)
	req.Header.Set("X-CSRF-Token", "secure-token")
	req.AddCookie(&http.Cookie{Name: "X-CSRF-Token", Value: "secure-token"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCSRFMiddlewareAllowsFormField(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusSeeOther))

	form := url.Values{"_csrf": {"form-token"}, "wc_dynamic_taxes_name": {"Eco Tax"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/dynamic-taxes", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "X-CSRF-Token", Value: "form-token"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestCSRFMiddlewareRejectsMismatch(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodPost, "/admin/dynamic-taxes", nil)
	req.Header.Set("X-CSRF-Token", "aaaa")
	req.AddCookie(&http.Cookie{Name: "X-CSRF-Token", Value: "bbbb"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCSRFMiddlewareSkipsBearer(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusAccepted))

	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	req.Header.Set("Authorization", "Bearer abc.def")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code)
}

func TestCSRFTokenReusesCookie(t *testing.T) {
	csrf := CSRF{}

	rr := httptest.NewRecorder()
	minted := csrf.Token(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, minted, 64)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, minted, cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	require.Equal(t, minted, csrf.Token(rr, req))
	require.Empty(t, rr.Result().Cookies())
}
