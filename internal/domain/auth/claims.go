package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// scopeCodes maps requested scope names to the short codes the provider
// lists in the access token's scopes claim.
var scopeCodes = map[string]string{
	"activity":  "ract",
	"heartrate": "rhr",
	"location":  "rloc",
	"nutrition": "rnut",
	"profile":   "rpro",
	"settings":  "rset",
	"sleep":     "rsle",
	"social":    "rsoc",
	"weight":    "rwei",
}

// MissingScopes returns the requested scopes the token was not granted.
// It returns nil when the token carries no scope information.
func (t Token) MissingScopes(requested []string) []string {
	if len(t.Scopes) == 0 {
		return nil
	}
	granted := make(map[string]bool, len(t.Scopes))
	for _, s := range t.Scopes {
		granted[s] = true
	}
	var missing []string
	for _, s := range requested {
		if granted[s] || granted[scopeCodes[s]] {
			continue
		}
		missing = append(missing, s)
	}
	return missing
}

type tokenClaims struct {
	UserID string
	Scopes []string
}

// parseClaims reads the subject and scopes of a JWT access token without
// verifying its signature.
func parseClaims(raw string) (tokenClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return tokenClaims{}, false
	}
	out := tokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.UserID = sub
	}
	switch v := claims["scopes"].(type) {
	case string:
		out.Scopes = strings.Fields(v)
	case []any:
		for _, s := range v {
			if str, ok := s.(string); ok {
				out.Scopes = append(out.Scopes, str)
			}
		}
	}
	return out, true
}
