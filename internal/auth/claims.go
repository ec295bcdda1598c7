package auth

import (
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// checks are the registered-claim rules applied after the signature verifies.
func (t *Tokens) checks() []jwt.ValidateOption {
	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return t.now() })),
		jwt.WithAcceptableSkew(t.clockSkew),
		jwt.WithRequiredClaim(jwt.SubjectKey),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	if t.audience != "" {
		opts = append(opts, jwt.WithAudience(t.audience))
	}
	return opts
}

// capabilities reads the caps claim. Tokens we build carry []string; after a
// round trip through JSON the claim decodes as []any.
func capabilities(tok jwt.Token) []string {
	raw, ok := tok.Get(CapabilitiesClaim)
	if !ok {
		return nil
	}
	var caps []string
	switch v := raw.(type) {
	case string:
		caps = []string{v}
	case []string:
		caps = slices.Clone(v)
	case []any:
		for _, el := range v {
			if s, isStr := el.(string); isStr {
				caps = append(caps, s)
			}
		}
	}
	return slices.DeleteFunc(caps, func(s string) bool { return s == "" })
}
