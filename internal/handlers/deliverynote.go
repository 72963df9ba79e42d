package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/diewo77/go-albaranes/httpx"
	"github.com/diewo77/go-albaranes/internal/policy"
	"github.com/diewo77/go-albaranes/internal/services"
	"github.com/diewo77/go-albaranes/internal/store"
)

// maxSignatureSize bounds the uploaded signature image.
const maxSignatureSize = 5 << 20

// DeliveryNoteHandler serves the note workflow. Unlike the rest of the API,
// these endpoints answer with a {status, message, data} envelope.
type DeliveryNoteHandler struct {
	notes *services.NoteService
}

func NewDeliveryNoteHandler(notes *services.NoteService) *DeliveryNoteHandler {
	return &DeliveryNoteHandler{notes: notes}
}

type createNoteRequest struct {
	ProjectID   uint   `json:"project_id"`
	Description string `json:"description"`
	services.LineFields
}

// Create registers a draft note under a project of the caller's company.
func (h *DeliveryNoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}

	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}
	if req.ProjectID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", map[string]string{"project_id": "required"})
		return
	}
	line, v := services.ParseLine(req.LineFields, ac.UserID())
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", v)
		return
	}

	note, err := h.notes.Create(ac, services.CreateNoteInput{
		ProjectID:   req.ProjectID,
		Line:        line,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Delivery note registered successfully", note)
}

// List returns all active notes of the caller's company.
func (h *DeliveryNoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	notes, err := h.notes.List(ac)
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	httpx.Success(w, http.StatusOK, "Delivery notes retrieved successfully", notes)
}

// Get returns one note with its references populated.
func (h *DeliveryNoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_DELIVERY_NOTE_ID", nil)
		return
	}
	note, err := h.notes.Get(ac, id)
	if err != nil {
		h.fail(w, "get", err)
		return
	}
	httpx.Success(w, http.StatusOK, "Delivery note retrieved successfully", note)
}

type updateNoteRequest struct {
	Description *string `json:"description"`
	services.LineFields
}

// Update rewrites the note's line fields and description.
func (h *DeliveryNoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_DELIVERY_NOTE_ID", nil)
		return
	}

	var req updateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}

	in := services.UpdateNoteInput{Description: req.Description}
	if req.Format != "" {
		line, v := services.ParseLine(req.LineFields, ac.UserID())
		if !v.Empty() {
			httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", v)
			return
		}
		in.Line = line
	}

	note, err := h.notes.Update(ac, id, in)
	if err != nil {
		h.fail(w, "update", err)
		return
	}
	httpx.Success(w, http.StatusOK, "Delivery note updated successfully", note)
}

// GetPDF returns the note's document URL, generating and uploading the PDF
// on first request and serving the cached reference afterwards.
func (h *DeliveryNoteHandler) GetPDF(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_DELIVERY_NOTE_ID", nil)
		return
	}

	url, cached, err := h.notes.GeneratePDF(ac, id)
	if err != nil {
		h.fail(w, "pdf", err)
		return
	}
	msg := "PDF generated and uploaded successfully"
	if cached {
		msg = "PDF already generated"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "success", "message": msg, "pdfUrl": url})
}

// UploadSignature accepts a multipart image, stores it as the note's
// signature and re-renders the PDF with the signature embedded.
func (h *DeliveryNoteHandler) UploadSignature(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_DELIVERY_NOTE_ID", nil)
		return
	}

	if err := r.ParseMultipartForm(maxSignatureSize); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "NO_FILE_UPLOADED", nil)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "NO_FILE_UPLOADED", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxSignatureSize))
	if err != nil {
		h.fail(w, "sign", err)
		return
	}
	// Sniff before any upload: the renderer embeds by detected format and
	// supports PNG and JPEG only.
	switch http.DetectContentType(data) {
	case "image/png", "image/jpeg":
	default:
		httpx.JSONError(w, http.StatusBadRequest, "UNSUPPORTED_IMAGE_FORMAT", nil)
		return
	}

	note, err := h.notes.UploadSignature(ac, id, data, header.Filename)
	if err != nil {
		h.fail(w, "sign", err)
		return
	}
	httpx.Success(w, http.StatusOK, "Signature and PDF uploaded successfully", map[string]any{
		"sign": note.Sign,
		"pdf":  note.PDF,
	})
}

// Delete removes a note, soft by default. Signed notes refuse both delete
// flavors.
func (h *DeliveryNoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_DELIVERY_NOTE_ID", nil)
		return
	}

	soft := softParam(r)
	if err := h.notes.Delete(ac, id, soft); err != nil {
		h.fail(w, "delete", err)
		return
	}
	msg := "Delivery note soft-deleted"
	if !soft {
		msg = "Delivery note permanently deleted"
	}
	httpx.Success(w, http.StatusOK, msg, nil)
}

// Restore brings a soft-deleted note back.
func (h *DeliveryNoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_DELIVERY_NOTE_ID", nil)
		return
	}

	note, err := h.notes.Restore(ac, id)
	if err != nil {
		h.fail(w, "restore", err)
		return
	}
	httpx.Success(w, http.StatusOK, "Delivery note restored successfully", note)
}

// fail maps workflow errors onto the API's error codes.
func (h *DeliveryNoteHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, policy.ErrNoCompany):
		httpx.JSONError(w, http.StatusForbidden, "USER_NOT_ASSOCIATED_WITH_COMPANY", nil)
	case errors.Is(err, services.ErrProjectNotFound):
		httpx.JSONError(w, http.StatusNotFound, "PROJECT_NOT_FOUND", nil)
	case errors.Is(err, services.ErrNoteNotFound):
		httpx.JSONError(w, http.StatusNotFound, "DELIVERY_NOTE_NOT_FOUND", nil)
	case errors.Is(err, services.ErrSignedNote):
		httpx.JSONError(w, http.StatusForbidden, "CANNOT_DELETE_SIGNED_DELIVERY_NOTE", nil)
	case errors.Is(err, store.ErrNotSoftDeleted):
		httpx.JSONError(w, http.StatusBadRequest, "DELIVERY_NOTE_NOT_SOFT_DELETED", nil)
	default:
		log.Printf("deliverynote %s: %v", op, err)
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", nil)
	}
}
