package auth

import (
	"context"
	"net/http"
	"strings"

	"MiniInventory/pkg/kit"
)

type ctxKey string

const claimsKey ctxKey = "claims"

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

// RequireRole rejects requests without a valid bearer token. A writer token
// satisfies a reader requirement; the reverse does not hold.
func RequireRole(tm *TokenMaker, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := tm.Parse(strings.TrimPrefix(authz, "Bearer "))
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}
			if !grants(claims.Role, role) {
				kit.WriteError(w, r, http.StatusForbidden, "forbidden", map[string]any{"required_role": role})
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func grants(have, want string) bool {
	if have == want {
		return true
	}
	return have == RoleWriter && want == RoleReader
}
