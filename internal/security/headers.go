package security

import (
	"net/http"
	"strconv"
	"time"
)

// Headers sets hardening headers on every response.
type Headers struct {
	// HSTS is the Strict-Transport-Security max-age; zero disables the header.
	// It is only sent on TLS requests.
	HSTS time.Duration
	// CSP is sent as Content-Security-Policy when non-empty.
	CSP string
	// FrameOptions "SAMEORIGIN" permits same-site framing; anything else denies it.
	FrameOptions string
}

func (h Headers) static() map[string]string {
	frame := "DENY"
	if h.FrameOptions == "SAMEORIGIN" {
		frame = h.FrameOptions
	}
	set := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              frame,
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	if h.CSP != "" {
		set["Content-Security-Policy"] = h.CSP
	}
	return set
}

// Middleware returns the header-setting handler.
func (h Headers) Middleware(next http.Handler) http.Handler {
	fixed := h.static()
	hsts := ""
	if secs := int64(h.HSTS / time.Second); secs > 0 {
		hsts = "max-age=" + strconv.FormatInt(secs, 10) + "; includeSubDomains"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for k, v := range fixed {
			out.Set(k, v)
		}
		if hsts != "" && r.TLS != nil {
			out.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}
