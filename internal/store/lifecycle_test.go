package store

import (
	"errors"
	"testing"

	"github.com/diewo77/go-albaranes/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Company{}, &models.Client{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedClient(t *testing.T, db *gorm.DB, email string) *models.Client {
	t.Helper()
	company := models.Company{Name: "Acme", CIF: "B" + email}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("company: %v", err)
	}
	client := models.Client{CompanyID: company.ID, Name: "Client", Email: email}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	return &client
}

func TestSoftDeleteHidesFromActive(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db, "a@test")

	if err := SoftDelete(db, client); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := First[models.Client](db, Active, "id = ?", client.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found in Active mode, got %v", err)
	}
	got, err := First[models.Client](db, IncludeDeleted, "id = ?", client.ID)
	if err != nil {
		t.Fatalf("IncludeDeleted: %v", err)
	}
	if !got.Deleted() {
		t.Fatal("expected record to be marked deleted")
	}
	if _, err := First[models.Client](db, DeletedOnly, "id = ?", client.ID); err != nil {
		t.Fatalf("DeletedOnly: %v", err)
	}
}

func TestDeletedOnlyExcludesActive(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db, "b@test")

	if _, err := First[models.Client](db, DeletedOnly, "id = ?", client.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for active record in DeletedOnly mode, got %v", err)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db, "c@test")

	if err := SoftDelete(db, client); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	deleted, err := First[models.Client](db, IncludeDeleted, "id = ?", client.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := Restore(db, deleted); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := First[models.Client](db, Active, "id = ?", client.ID)
	if err != nil {
		t.Fatalf("expected record visible after restore, got %v", err)
	}
	if restored.Deleted() {
		t.Fatal("expected deleted_at cleared after restore")
	}
}

func TestRestoreActiveFails(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db, "d@test")

	if err := Restore(db, client); !errors.Is(err, ErrNotSoftDeleted) {
		t.Fatalf("expected ErrNotSoftDeleted, got %v", err)
	}
}

func TestHardDeleteIsPermanent(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db, "e@test")

	if err := HardDelete(db, client); err != nil {
		t.Fatalf("hard delete: %v", err)
	}
	if _, err := First[models.Client](db, IncludeDeleted, "id = ?", client.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record gone even with IncludeDeleted, got %v", err)
	}
}

func TestExistsRespectsMode(t *testing.T) {
	db := setupTestDB(t)
	client := seedClient(t, db, "f@test")

	if err := SoftDelete(db, client); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	active, err := Exists[models.Client](db, Active, "email = ?", "f@test")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if active {
		t.Fatal("soft-deleted record should not exist in Active mode")
	}
	any, err := Exists[models.Client](db, IncludeDeleted, "email = ?", "f@test")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !any {
		t.Fatal("soft-deleted record should exist in IncludeDeleted mode")
	}
}
