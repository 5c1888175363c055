package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/iams-api/internal/infrastructure/jwt"
)

type contextKey string

const claimsKey contextKey = "claims"

// QueryTokenParam carries the access token for clients that cannot set
// headers, such as the browser EventSource.
const QueryTokenParam = "access_token"

type tokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Auth returns middleware that validates the Bearer JWT and injects claims into context.
func Auth(v tokenVerifier) func(http.Handler) http.Handler {
	return authenticate(v, false)
}

// AuthWithQueryToken is Auth that also accepts the token in the
// access_token query parameter. Mount it only on streaming routes.
func AuthWithQueryToken(v tokenVerifier) func(http.Handler) http.Handler {
	return authenticate(v, true)
}

func authenticate(v tokenVerifier, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok && allowQuery {
				tokenStr = r.URL.Query().Get(QueryTokenParam)
				ok = tokenStr != ""
			}
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := v.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok
}
