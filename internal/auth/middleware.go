package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-dyntax/internal/common"
)

// Middleware authenticates requests from a bearer header or the access cookie.
type Middleware struct {
	Tokens       *Tokens
	AccessCookie string
}

var errUnauthenticated = common.NewAppError("UNAUTHORIZED", "authentication required", http.StatusUnauthorized, nil)

// RequireAuth stores the verified subject and capabilities in the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := m.credential(r)
		if raw == "" || m.Tokens == nil {
			m.deny(w, errUnauthenticated)
			return
		}
		claims, err := m.Tokens.Parse(raw)
		if err != nil {
			m.deny(w, err)
			return
		}
		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("subject", claims.Subject)
		})
		ctx := common.WithCapabilities(common.WithUserID(r.Context(), claims.Subject), claims.Capabilities)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) deny(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	common.WriteError(w, err)
}

// credential prefers the Authorization header and falls back to the cookie
// set for the admin page.
func (m Middleware) credential(r *http.Request) string {
	if scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if m.AccessCookie == "" {
		return ""
	}
	c, err := r.Cookie(m.AccessCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// RequireCapability answers 403 unless the caller holds capability.
// Mount it after RequireAuth.
func RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if common.HasCapability(r.Context(), capability) {
				next.ServeHTTP(w, r)
				return
			}
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions", map[string]string{"capability": capability})
		})
	}
}
