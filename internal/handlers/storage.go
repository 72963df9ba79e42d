package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/diewo77/go-albaranes/httpx"
	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/store"
	"github.com/diewo77/go-albaranes/internal/upload"
	"gorm.io/gorm"
)

// maxLogoSize bounds the uploaded company logo.
const maxLogoSize = 5 << 20

// StorageHandler uploads the company logo and records the stored file.
type StorageHandler struct {
	db       *gorm.DB
	uploader upload.Uploader
}

func NewStorageHandler(db *gorm.DB, uploader upload.Uploader) *StorageHandler {
	return &StorageHandler{db: db, uploader: uploader}
}

// UploadLogo stores the multipart image, records a storage item for the
// caller and sets the URL as the company logo.
func (h *StorageHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	companyID, ok := requireCompany(w, ac)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "NO_FILE_UPLOADED", nil)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "NO_FILE_UPLOADED", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxLogoSize))
	if err != nil {
		h.internal(w, "read upload", err)
		return
	}

	url, err := h.uploader.Upload(data, header.Filename)
	if err != nil {
		h.internal(w, "upload", err)
		return
	}

	item := models.StorageItem{
		UserID:   ac.UserID(),
		Filename: header.Filename,
		URL:      url,
	}
	if err := h.db.Create(&item).Error; err != nil {
		h.internal(w, "record", err)
		return
	}

	company, err := store.First[models.Company](h.db, store.Active, "id = ?", companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "COMPANY_NOT_ASSOCIATED", nil)
			return
		}
		h.internal(w, "load company", err)
		return
	}
	company.LogoURL = url
	if err := h.db.Save(company).Error; err != nil {
		h.internal(w, "save company", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Logo uploaded successfully",
		"logo":    url,
		"item":    item,
	})
}

func (h *StorageHandler) internal(w http.ResponseWriter, op string, err error) {
	log.Printf("storage %s: %v", op, err)
	httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", nil)
}
