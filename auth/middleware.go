package auth

import (
	"fmt"
	"net/http"
)

func unauthorized(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q}`, code)
}

// RequireToken verifies the bearer token and attaches its claims to the
// request context. Verification-scoped tokens are rejected here: they are
// not general access credentials.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, err := FromHeader(r)
		if err != nil {
			unauthorized(w, "NOT_TOKEN")
			return
		}
		claims, err := Verify(tokenStr)
		if err != nil {
			unauthorized(w, "INVALID_TOKEN")
			return
		}
		if claims.VerificationPending {
			unauthorized(w, "INVALID_TOKEN")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}
