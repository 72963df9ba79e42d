package handlers

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/services"
	"gorm.io/gorm"
)

type fakeRenderer struct{}

func (fakeRenderer) Render(note *models.DeliveryNote, signature []byte) ([]byte, error) {
	return []byte("%PDF-fake"), nil
}

type fakeUploader struct{}

func (fakeUploader) Upload(data []byte, filename string) (string, error) {
	return "http://files.test/" + filename, nil
}

func newNoteHandler(db *gorm.DB) *DeliveryNoteHandler {
	return NewDeliveryNoteHandler(services.NewNoteService(db, fakeRenderer{}, fakeUploader{}))
}

func TestDeliveryNoteCreateEnvelope(t *testing.T) {
	db := setupTestDB(t)
	h := newNoteHandler(db)
	user := seedCompanyUser(t, db, "dn")
	project := seedProjectFor(t, db, user, "Site")

	req := httptest.NewRequest(http.MethodPost, "/api/deliverynote",
		strings.NewReader(`{"project_id":`+uintToStr(project.ID)+`,"format":"hours","hours":8,"description":"full day"}`))
	w := httptest.NewRecorder()
	h.Create(w, asUser(req, user))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	body := jsonBody(t, w)
	if body["status"] != "success" {
		t.Fatalf("status = %v", body["status"])
	}
	if body["message"] != "Delivery note registered successfully" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestDeliveryNoteCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	h := newNoteHandler(db)
	user := seedCompanyUser(t, db, "dnval")
	project := seedProjectFor(t, db, user, "Site")

	// Material format without quantity is refused before anything is stored.
	req := httptest.NewRequest(http.MethodPost, "/api/deliverynote",
		strings.NewReader(`{"project_id":`+uintToStr(project.ID)+`,"format":"material","material":"cement"}`))
	w := httptest.NewRecorder()
	h.Create(w, asUser(req, user))
	wantError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")

	var count int64
	db.Model(&models.DeliveryNote{}).Count(&count)
	if count != 0 {
		t.Fatal("invalid note must not be persisted")
	}
}

func TestDeliveryNoteCreateForeignProject(t *testing.T) {
	db := setupTestDB(t)
	h := newNoteHandler(db)
	owner := seedCompanyUser(t, db, "dnowner")
	intruder := seedCompanyUser(t, db, "dnintruder")
	project := seedProjectFor(t, db, owner, "Theirs")

	req := httptest.NewRequest(http.MethodPost, "/api/deliverynote",
		strings.NewReader(`{"project_id":`+uintToStr(project.ID)+`,"format":"hours","hours":2}`))
	w := httptest.NewRecorder()
	h.Create(w, asUser(req, intruder))
	wantError(t, w, http.StatusNotFound, "PROJECT_NOT_FOUND")
}

func TestDeliveryNotePDFMessages(t *testing.T) {
	db := setupTestDB(t)
	h := newNoteHandler(db)
	user := seedCompanyUser(t, db, "dnpdf")
	project := seedProjectFor(t, db, user, "Site")
	note := createNoteVia(t, h, user, project)

	req := httptest.NewRequest(http.MethodGet, "/api/deliverynote/pdf/"+uintToStr(note), nil)
	req.SetPathValue("id", uintToStr(note))
	w := httptest.NewRecorder()
	h.GetPDF(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("pdf: %d %s", w.Code, w.Body.String())
	}
	body := jsonBody(t, w)
	if body["message"] != "PDF generated and uploaded successfully" {
		t.Fatalf("first message = %v", body["message"])
	}
	url, _ := body["pdfUrl"].(string)
	if url == "" {
		t.Fatal("expected pdfUrl")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/deliverynote/pdf/"+uintToStr(note), nil)
	req.SetPathValue("id", uintToStr(note))
	w = httptest.NewRecorder()
	h.GetPDF(w, asUser(req, user))
	body = jsonBody(t, w)
	if body["message"] != "PDF already generated" {
		t.Fatalf("second message = %v", body["message"])
	}
	if body["pdfUrl"] != url {
		t.Fatalf("cached url changed: %v != %s", body["pdfUrl"], url)
	}
}

func TestDeliveryNoteSignAndDeleteLock(t *testing.T) {
	db := setupTestDB(t)
	h := newNoteHandler(db)
	user := seedCompanyUser(t, db, "dnsign")
	project := seedProjectFor(t, db, user, "Site")
	note := createNoteVia(t, h, user, project)

	// Multipart signature upload.
	req := signRequest(t, note, "firma.png", pngImage(t))
	w := httptest.NewRecorder()
	h.UploadSignature(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("sign: %d %s", w.Code, w.Body.String())
	}

	// A signed note refuses deletion, soft and hard alike.
	req = httptest.NewRequest(http.MethodDelete, "/api/deliverynote/"+uintToStr(note), nil)
	req.SetPathValue("id", uintToStr(note))
	w = httptest.NewRecorder()
	h.Delete(w, asUser(req, user))
	wantError(t, w, http.StatusForbidden, "CANNOT_DELETE_SIGNED_DELIVERY_NOTE")

	req = httptest.NewRequest(http.MethodDelete, "/api/deliverynote/"+uintToStr(note)+"?soft=false", nil)
	req.SetPathValue("id", uintToStr(note))
	w = httptest.NewRecorder()
	h.Delete(w, asUser(req, user))
	wantError(t, w, http.StatusForbidden, "CANNOT_DELETE_SIGNED_DELIVERY_NOTE")
}

func TestDeliveryNoteSignImageFormats(t *testing.T) {
	db := setupTestDB(t)
	h := newNoteHandler(db)
	user := seedCompanyUser(t, db, "dnformats")
	project := seedProjectFor(t, db, user, "Site")
	note := createNoteVia(t, h, user, project)

	// Anything that is neither PNG nor JPEG is refused before any upload.
	req := signRequest(t, note, "firma.gif", []byte("GIF89a\x01\x00\x01\x00"))
	w := httptest.NewRecorder()
	h.UploadSignature(w, asUser(req, user))
	wantError(t, w, http.StatusBadRequest, "UNSUPPORTED_IMAGE_FORMAT")

	var stored models.DeliveryNote
	if err := db.First(&stored, note).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Signed() {
		t.Fatal("rejected upload must not sign the note")
	}

	// JPEG signatures are accepted alongside PNG.
	req = signRequest(t, note, "firma.jpg", jpegImage(t))
	w = httptest.NewRecorder()
	h.UploadSignature(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("jpeg sign: %d %s", w.Code, w.Body.String())
	}
}

func TestDeliveryNoteSignWithoutFile(t *testing.T) {
	db := setupTestDB(t)
	h := newNoteHandler(db)
	user := seedCompanyUser(t, db, "dnnofile")
	project := seedProjectFor(t, db, user, "Site")
	note := createNoteVia(t, h, user, project)

	req := httptest.NewRequest(http.MethodPatch, "/api/deliverynote/sign/"+uintToStr(note), nil)
	req.SetPathValue("id", uintToStr(note))
	w := httptest.NewRecorder()
	h.UploadSignature(w, asUser(req, user))
	wantError(t, w, http.StatusBadRequest, "NO_FILE_UPLOADED")
}

func TestDeliveryNoteDeleteAndRestore(t *testing.T) {
	db := setupTestDB(t)
	h := newNoteHandler(db)
	user := seedCompanyUser(t, db, "dncycle")
	project := seedProjectFor(t, db, user, "Site")
	note := createNoteVia(t, h, user, project)

	req := httptest.NewRequest(http.MethodDelete, "/api/deliverynote/"+uintToStr(note), nil)
	req.SetPathValue("id", uintToStr(note))
	w := httptest.NewRecorder()
	h.Delete(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/deliverynote/restore/"+uintToStr(note), nil)
	req.SetPathValue("id", uintToStr(note))
	w = httptest.NewRecorder()
	h.Restore(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("restore: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/deliverynote/"+uintToStr(note), nil)
	req.SetPathValue("id", uintToStr(note))
	w = httptest.NewRecorder()
	h.Get(w, asUser(req, user))
	if w.Code != http.StatusOK {
		t.Fatalf("restored note not visible: %d %s", w.Code, w.Body.String())
	}
}

// signRequest builds a multipart signature upload for the note.
func signRequest(t *testing.T, note uint, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPatch, "/api/deliverynote/sign/"+uintToStr(note), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetPathValue("id", uintToStr(note))
	return req
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func jpegImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// createNoteVia registers an hours note through the handler and returns its id.
func createNoteVia(t *testing.T, h *DeliveryNoteHandler, user *models.User, project *models.Project) uint {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/deliverynote",
		strings.NewReader(`{"project_id":`+uintToStr(project.ID)+`,"format":"hours","hours":4}`))
	w := httptest.NewRecorder()
	h.Create(w, asUser(req, user))
	if w.Code != http.StatusCreated {
		t.Fatalf("create note: %d %s", w.Code, w.Body.String())
	}
	data, _ := jsonBody(t, w)["data"].(map[string]any)
	id, _ := data["id"].(float64)
	if id == 0 {
		t.Fatalf("no note id in response: %s", w.Body.String())
	}
	return uint(id)
}
