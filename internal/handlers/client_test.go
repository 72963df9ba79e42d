package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-albaranes/internal/models"
	"gorm.io/gorm"
)

func seedClientFor(t *testing.T, db *gorm.DB, user *models.User, email string) *models.Client {
	t.Helper()
	client := models.Client{CompanyID: *user.CompanyID, Name: "Client", Email: email}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	return &client
}

func clientGetRequest(user *models.User, id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/client/"+id, nil)
	req.SetPathValue("id", id)
	return asUser(req, user)
}

func TestClientCreateDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	h := NewClientHandler(db)
	user := seedCompanyUser(t, db, "cdup")
	seedClientFor(t, db, user, "dup@client")

	req := httptest.NewRequest(http.MethodPost, "/api/client",
		strings.NewReader(`{"name":"Again","email":"dup@client"}`))
	w := httptest.NewRecorder()
	h.Create(w, asUser(req, user))
	wantError(t, w, http.StatusConflict, "CLIENT_ALREADY_EXISTS")
}

func TestClientSameEmailDifferentCompany(t *testing.T) {
	db := setupTestDB(t)
	h := NewClientHandler(db)
	userA := seedCompanyUser(t, db, "ca")
	userB := seedCompanyUser(t, db, "cb")
	seedClientFor(t, db, userA, "shared@client")

	// The uniqueness scope is per company, so another tenant can reuse the
	// email.
	req := httptest.NewRequest(http.MethodPost, "/api/client",
		strings.NewReader(`{"name":"Mine","email":"shared@client"}`))
	w := httptest.NewRecorder()
	h.Create(w, asUser(req, userB))
	if w.Code != http.StatusOK {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
}

func TestClientCrossTenantIsForbidden(t *testing.T) {
	db := setupTestDB(t)
	h := NewClientHandler(db)
	owner := seedCompanyUser(t, db, "owner")
	intruder := seedCompanyUser(t, db, "intruder")
	client := seedClientFor(t, db, owner, "victim@client")

	w := httptest.NewRecorder()
	h.Get(w, clientGetRequest(intruder, uintToStr(client.ID)))
	// The client endpoints confirm existence with a 403, unlike the
	// project ones which hide it behind 404.
	wantError(t, w, http.StatusForbidden, "UNAUTHORIZED_CLIENT_ACCESS")
}

func TestClientRestoreNotDeleted(t *testing.T) {
	db := setupTestDB(t)
	h := NewClientHandler(db)
	user := seedCompanyUser(t, db, "crest")
	client := seedClientFor(t, db, user, "active@client")

	req := httptest.NewRequest(http.MethodPatch, "/api/client/restore/"+uintToStr(client.ID), nil)
	req.SetPathValue("id", uintToStr(client.ID))
	w := httptest.NewRecorder()
	h.Restore(w, asUser(req, user))
	wantError(t, w, http.StatusBadRequest, "CLIENT_NOT_SOFT_DELETED")
}

func TestClientArchiveListsDeletedOnly(t *testing.T) {
	db := setupTestDB(t)
	h := NewClientHandler(db)
	user := seedCompanyUser(t, db, "carc")
	kept := seedClientFor(t, db, user, "kept@client")
	gone := seedClientFor(t, db, user, "gone@client")
	if err := db.Delete(gone).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/client/archive", nil)
	w := httptest.NewRecorder()
	h.ListArchived(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("archive: %d %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "gone@client") {
		t.Fatalf("archived client missing from %s", body)
	}
	if strings.Contains(body, kept.Email) {
		t.Fatalf("active client leaked into archive: %s", body)
	}

	// And the active list is the mirror image.
	req = httptest.NewRequest(http.MethodGet, "/api/client", nil)
	w = httptest.NewRecorder()
	h.List(w, asUser(req, user))
	body = w.Body.String()
	if !strings.Contains(body, "kept@client") || strings.Contains(body, "gone@client") {
		t.Fatalf("unexpected active list: %s", body)
	}
}

func TestClientRestoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	h := NewClientHandler(db)
	user := seedCompanyUser(t, db, "ccycle")
	client := seedClientFor(t, db, user, "cycle@client")
	if err := db.Delete(client).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/client/restore/"+uintToStr(client.ID), nil)
	req.SetPathValue("id", uintToStr(client.ID))
	w := httptest.NewRecorder()
	h.Restore(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("restore: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.Get(w, clientGetRequest(user, uintToStr(client.ID)))
	if w.Code != http.StatusOK {
		t.Fatalf("restored client not visible: %d %s", w.Code, w.Body.String())
	}
}
