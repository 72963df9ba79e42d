package policy

import (
	"errors"
	"testing"

	"github.com/diewo77/go-albaranes/internal/models"
)

func ctxFor(companyID *uint, role string) *AuthContext {
	return &AuthContext{User: &models.User{ID: 1, Role: role, CompanyID: companyID}}
}

func TestRequireCompany(t *testing.T) {
	id := uint(4)
	if got, err := ctxFor(&id, models.RoleUser).RequireCompany(); err != nil || got != 4 {
		t.Fatalf("got %d, %v", got, err)
	}
	if _, err := ctxFor(nil, models.RoleUser).RequireCompany(); !errors.Is(err, ErrNoCompany) {
		t.Fatalf("expected ErrNoCompany, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	ac := ctxFor(nil, models.RoleAdmin)
	if err := ac.RequireRole(models.RoleAdmin); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if err := ac.RequireRole(models.RoleUser, models.RoleGuest); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCheckTenant(t *testing.T) {
	id := uint(10)
	ac := ctxFor(&id, models.RoleUser)

	if err := ac.CheckTenant(10, MismatchForbidden); err != nil {
		t.Fatalf("same tenant rejected: %v", err)
	}
	if err := ac.CheckTenant(11, MismatchForbidden); !errors.Is(err, ErrWrongTenant) {
		t.Fatalf("expected ErrWrongTenant, got %v", err)
	}
	if err := ac.CheckTenant(11, MismatchNotFound); !errors.Is(err, ErrWrongTenantAsNotFound) {
		t.Fatalf("expected ErrWrongTenantAsNotFound, got %v", err)
	}
	if err := ctxFor(nil, models.RoleUser).CheckTenant(10, MismatchForbidden); !errors.Is(err, ErrNoCompany) {
		t.Fatalf("expected ErrNoCompany, got %v", err)
	}
}
