package services

import (
	"errors"
	"testing"

	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/store"
)

func TestCompanyRegisterCreatesAndLinks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCompanyService(db)

	user := models.User{Email: "owner@test", Role: models.RoleUser, IsVerified: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	company, linked, err := svc.Register(&user, CompanyInput{Name: "Acme", CIF: "B11111111"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if linked {
		t.Fatal("fresh CIF must not report linked")
	}
	if user.CompanyID == nil || *user.CompanyID != company.ID {
		t.Fatal("user not linked to new company")
	}
}

func TestCompanyRegisterLinksExistingCIF(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCompanyService(db)

	existing := models.Company{Name: "Acme", CIF: "B22222222"}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("company: %v", err)
	}
	user := models.User{Email: "joiner@test", Role: models.RoleUser, IsVerified: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	company, linked, err := svc.Register(&user, CompanyInput{Name: "Ignored", CIF: "B22222222"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !linked {
		t.Fatal("existing CIF must report linked")
	}
	if company.ID != existing.ID {
		t.Fatalf("linked to company %d, want %d", company.ID, existing.ID)
	}
	if company.Name != "Acme" {
		t.Fatal("linking must not rewrite the existing company")
	}
	if user.CompanyID == nil || *user.CompanyID != existing.ID {
		t.Fatal("user not linked to existing company")
	}
}

func TestCompanyUpdateRejectsForeignCIF(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCompanyService(db)

	other := models.Company{Name: "Other", CIF: "B33333333"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("company: %v", err)
	}
	mine := models.Company{Name: "Mine", CIF: "B44444444"}
	if err := db.Create(&mine).Error; err != nil {
		t.Fatalf("company: %v", err)
	}
	user := models.User{Email: "upd@test", Role: models.RoleUser, IsVerified: true, CompanyID: &mine.ID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	if _, err := svc.Update(&user, CompanyInput{Name: "Mine", CIF: "B33333333"}); !errors.Is(err, ErrCIFInUse) {
		t.Fatalf("expected ErrCIFInUse, got %v", err)
	}

	// Keeping the own CIF is not a conflict.
	if _, err := svc.Update(&user, CompanyInput{Name: "Mine renamed", CIF: "B44444444"}); err != nil {
		t.Fatalf("same-cif update: %v", err)
	}
}

func TestCompanyDeleteLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCompanyService(db)

	company := models.Company{Name: "Gone", CIF: "B55555555"}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("company: %v", err)
	}
	user := models.User{Email: "del@test", Role: models.RoleUser, IsVerified: true, CompanyID: &company.ID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	if err := svc.Delete(&user, true); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	got, err := store.First[models.Company](db, store.IncludeDeleted, "id = ?", company.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.Deleted() {
		t.Fatal("expected company soft-deleted")
	}

	// Soft-deleted company no longer resolves, so a second delete reports
	// no company.
	if err := svc.Delete(&user, false); !errors.Is(err, ErrNoCompanyLinked) {
		t.Fatalf("expected ErrNoCompanyLinked after soft delete, got %v", err)
	}
}

func TestCompanyDeleteWithoutCompany(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCompanyService(db)

	user := models.User{Email: "nocompany@test", Role: models.RoleUser, IsVerified: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	if err := svc.Delete(&user, true); !errors.Is(err, ErrNoCompanyLinked) {
		t.Fatalf("expected ErrNoCompanyLinked, got %v", err)
	}
}
