// Package policy is the central authorization point. The session middleware
// builds one AuthContext per request from the verified token plus a fresh
// user lookup; handlers and services receive it explicitly instead of
// mutating the request.
package policy

import (
	"errors"

	"github.com/diewo77/go-albaranes/internal/models"
)

var (
	// ErrNoCompany rejects company-scoped operations for users without a
	// tenant, before any entity lookup happens.
	ErrNoCompany = errors.New("user not associated with a company")
	// ErrWrongTenant is a same-role, wrong-company authorization failure.
	ErrWrongTenant = errors.New("entity belongs to another company")
	// ErrForbidden is a role failure.
	ErrForbidden = errors.New("role not permitted")
)

// TenantMismatch selects how a cross-tenant lookup surfaces to the caller.
// The API is deliberately inconsistent here: client endpoints answer an
// explicit 403, project and delivery-note endpoints conflate the mismatch
// with absence and answer 404. Both policies are kept available.
type TenantMismatch int

const (
	// MismatchForbidden returns a distinct 403-class error, confirming the
	// entity exists.
	MismatchForbidden TenantMismatch = iota
	// MismatchNotFound conflates the mismatch with absence.
	MismatchNotFound
)

// AuthContext carries the authenticated identity for one request. The user
// is freshly loaded (deleted records included) so token claims are never
// trusted for existence or deletion state.
type AuthContext struct {
	User *models.User
}

// UserID returns the authenticated user's id.
func (a *AuthContext) UserID() uint { return a.User.ID }

// Role returns the authenticated user's current role.
func (a *AuthContext) Role() string { return a.User.Role }

// IsAdmin reports whether the user holds the admin role.
func (a *AuthContext) IsAdmin() bool { return a.User.IsAdmin() }

// CompanyID returns the user's tenant, if any.
func (a *AuthContext) CompanyID() (uint, bool) {
	if a.User.CompanyID == nil {
		return 0, false
	}
	return *a.User.CompanyID, true
}

// RequireCompany fails fast when the user has no tenant.
func (a *AuthContext) RequireCompany() (uint, error) {
	id, ok := a.CompanyID()
	if !ok {
		return 0, ErrNoCompany
	}
	return id, nil
}

// RequireRole checks that the user's role is one of the allowed set.
func (a *AuthContext) RequireRole(roles ...string) error {
	for _, r := range roles {
		if a.User.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// CheckTenant verifies that an entity's company matches the user's company,
// surfacing a mismatch according to the given policy. gorm's not-found
// error is reused for MismatchNotFound so callers can treat it exactly like
// a failed lookup.
func (a *AuthContext) CheckTenant(entityCompanyID uint, mismatch TenantMismatch) error {
	companyID, err := a.RequireCompany()
	if err != nil {
		return err
	}
	if entityCompanyID == companyID {
		return nil
	}
	if mismatch == MismatchNotFound {
		return ErrWrongTenantAsNotFound
	}
	return ErrWrongTenant
}

// ErrWrongTenantAsNotFound is the not-found-flavored tenant failure.
var ErrWrongTenantAsNotFound = errors.New("entity not visible in this company")
