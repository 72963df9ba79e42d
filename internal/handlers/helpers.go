package handlers

import (
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/diewo77/go-albaranes/httpx"
	"github.com/diewo77/go-albaranes/internal/policy"
)

// generateCode returns a uniform 6-digit numeric code as a string.
func generateCode() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (uint, bool) {
	id64, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// softParam reports whether the delete should be soft. Soft is the
// default; only an explicit soft=false selects hard delete.
func softParam(r *http.Request) bool {
	return r.URL.Query().Get("soft") != "false"
}

// authCtx pulls the request's AuthContext; the middleware guarantees it.
func authCtx(w http.ResponseWriter, r *http.Request) (*policy.AuthContext, bool) {
	ac, ok := policy.FromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "NOT_TOKEN", nil)
		return nil, false
	}
	return ac, true
}

// requireCompany fails the request fast when the user has no tenant.
func requireCompany(w http.ResponseWriter, ac *policy.AuthContext) (uint, bool) {
	companyID, err := ac.RequireCompany()
	if err != nil {
		httpx.JSONError(w, http.StatusForbidden, "USER_NOT_ASSOCIATED_WITH_COMPANY", nil)
		return 0, false
	}
	return companyID, true
}
