package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

const (
	defaultCSRFHeader = "X-CSRF-Token"
	defaultCSRFField  = "_csrf"
)

// CSRF protects cookie-based flows using the double-submit technique. The token
// is read from the header or, for HTML forms, from a form field.
type CSRF struct {
	Header    string
	FormField string
	Secure    bool
}

func (c CSRF) headerName() string {
	if name := strings.TrimSpace(c.Header); name != "" {
		return name
	}
	return defaultCSRFHeader
}

func (c CSRF) fieldName() string {
	if name := strings.TrimSpace(c.FormField); name != "" {
		return name
	}
	return defaultCSRFField
}

// Token returns the request's CSRF cookie value, minting and setting a new one
// when absent.
func (c CSRF) Token(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(c.headerName()); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return cookie.Value
	}
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     c.headerName(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token
}

// Middleware enforces that non-idempotent requests include a CSRF token matching a cookie.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName := c.headerName()
	fieldName := c.fieldName()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimSpace(r.Header.Get(headerName))
		if token == "" {
			token = strings.TrimSpace(r.PostFormValue(fieldName))
		}
		if token == "" {
			http.Error(w, "missing csrf token", http.StatusForbidden)
			return
		}

		cookie, err := r.Cookie(headerName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			http.Error(w, "missing csrf cookie", http.StatusForbidden)
			return
		}

		if !tokensEqual(token, cookie.Value) {
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func tokensEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
