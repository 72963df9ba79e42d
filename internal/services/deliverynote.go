package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/policy"
	"github.com/diewo77/go-albaranes/internal/store"
	"gorm.io/gorm"
)

var (
	// ErrProjectNotFound means the target project does not exist in the
	// caller's company (absent or cross-tenant, indistinguishable here).
	ErrProjectNotFound = errors.New("project not found")
	// ErrNoteNotFound is the company-scoped miss for delivery notes.
	ErrNoteNotFound = errors.New("delivery note not found")
	// ErrSignedNote blocks deletion of a signed note, soft or hard.
	ErrSignedNote = errors.New("cannot delete a signed delivery note")
)

// Renderer turns a delivery note snapshot into PDF bytes.
type Renderer interface {
	Render(note *models.DeliveryNote, signature []byte) ([]byte, error)
}

// Uploader pushes bytes to storage and returns the public URL.
type Uploader interface {
	Upload(data []byte, filename string) (string, error)
}

// NoteService implements the delivery-note workflow: draft on create,
// idempotent PDF generation, signature upload with re-render, and the
// signed-note deletion lock.
type NoteService struct {
	db       *gorm.DB
	renderer Renderer
	uploader Uploader
}

func NewNoteService(db *gorm.DB, renderer Renderer, uploader Uploader) *NoteService {
	return &NoteService{db: db, renderer: renderer, uploader: uploader}
}

// CreateNoteInput is everything needed to register a note under a project.
type CreateNoteInput struct {
	ProjectID   uint
	Line        NoteLine
	Description string
}

// Create registers a draft note. The client is derived from the project,
// never taken from the caller, so a note can only ever reference its
// project's client.
func (s *NoteService) Create(ac *policy.AuthContext, in CreateNoteInput) (*models.DeliveryNote, error) {
	companyID, err := ac.RequireCompany()
	if err != nil {
		return nil, err
	}

	project, err := store.First[models.Project](s.db, store.Active, "id = ? AND company_id = ?", in.ProjectID, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	note := models.DeliveryNote{
		CompanyID:   companyID,
		ProjectID:   project.ID,
		ClientID:    project.ClientID,
		CreatedByID: ac.UserID(),
		Description: in.Description,
		Pending:     true,
	}
	in.Line.apply(&note)

	if err := s.db.Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// Get returns one note of the caller's company with its references
// populated.
func (s *NoteService) Get(ac *policy.AuthContext, id uint) (*models.DeliveryNote, error) {
	companyID, err := ac.RequireCompany()
	if err != nil {
		return nil, err
	}
	return s.loadNote(companyID, id, store.Active)
}

// List returns all active notes of the caller's company.
func (s *NoteService) List(ac *policy.AuthContext) ([]models.DeliveryNote, error) {
	companyID, err := ac.RequireCompany()
	if err != nil {
		return nil, err
	}
	var notes []models.DeliveryNote
	err = s.db.
		Preload("Project").Preload("Client").Preload("User").
		Where("company_id = ?", companyID).
		Find(&notes).Error
	return notes, err
}

// UpdateNoteInput carries the mutable fields of a note.
type UpdateNoteInput struct {
	Line        NoteLine
	Description *string
}

// Update rewrites the note's line and, when given, its description. The
// company field can never be changed through here.
func (s *NoteService) Update(ac *policy.AuthContext, id uint, in UpdateNoteInput) (*models.DeliveryNote, error) {
	companyID, err := ac.RequireCompany()
	if err != nil {
		return nil, err
	}
	note, err := s.loadNote(companyID, id, store.Active)
	if err != nil {
		return nil, err
	}

	if in.Line != nil {
		in.Line.apply(note)
	}
	if in.Description != nil {
		note.Description = *in.Description
	}
	if err := s.db.Save(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

// GeneratePDF renders, uploads and caches the note's document. Idempotent:
// when a PDF URL already exists it is returned unchanged without touching
// the renderer.
func (s *NoteService) GeneratePDF(ac *policy.AuthContext, id uint) (string, bool, error) {
	companyID, err := ac.RequireCompany()
	if err != nil {
		return "", false, err
	}
	note, err := s.loadNote(companyID, id, store.Active)
	if err != nil {
		return "", false, err
	}

	if note.PDF != nil && *note.PDF != "" {
		return *note.PDF, true, nil
	}

	data, err := s.renderer.Render(note, nil)
	if err != nil {
		return "", false, err
	}
	url, err := s.uploader.Upload(data, fmt.Sprintf("deliverynote-%d.pdf", note.ID))
	if err != nil {
		return "", false, err
	}
	note.PDF = &url
	if err := s.db.Save(note).Error; err != nil {
		return "", false, err
	}
	return url, false, nil
}

// UploadSignature stores the signature image, re-renders the PDF with the
// signature embedded and overwrites the previous document reference.
// Re-signing an already signed note just re-renders with the new image.
func (s *NoteService) UploadSignature(ac *policy.AuthContext, id uint, image []byte, filename string) (*models.DeliveryNote, error) {
	companyID, err := ac.RequireCompany()
	if err != nil {
		return nil, err
	}
	note, err := s.loadNote(companyID, id, store.Active)
	if err != nil {
		return nil, err
	}

	signURL, err := s.uploader.Upload(image, filename)
	if err != nil {
		return nil, err
	}
	note.Sign = &signURL

	data, err := s.renderer.Render(note, image)
	if err != nil {
		return nil, err
	}
	pdfURL, err := s.uploader.Upload(data, fmt.Sprintf("deliverynote-%d.pdf", note.ID))
	if err != nil {
		return nil, err
	}
	note.PDF = &pdfURL
	note.Pending = false

	if err := s.db.Save(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

// Delete removes a note, soft by default. A signed note rejects both
// flavors with ErrSignedNote; nothing unsigns a note through this surface.
func (s *NoteService) Delete(ac *policy.AuthContext, id uint, soft bool) error {
	companyID, err := ac.RequireCompany()
	if err != nil {
		return err
	}
	note, err := store.First[models.DeliveryNote](s.db, store.Active, "id = ? AND company_id = ?", id, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoteNotFound
		}
		return err
	}
	if note.Signed() {
		return ErrSignedNote
	}
	if soft {
		return store.SoftDelete(s.db, note)
	}
	// Hard delete does not pull the note's id out of anything referencing
	// it; dangling references are accepted.
	return store.HardDelete(s.db, note)
}

// Restore brings a soft-deleted note back.
func (s *NoteService) Restore(ac *policy.AuthContext, id uint) (*models.DeliveryNote, error) {
	companyID, err := ac.RequireCompany()
	if err != nil {
		return nil, err
	}
	note, err := store.First[models.DeliveryNote](s.db, store.IncludeDeleted, "id = ? AND company_id = ?", id, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	if err := store.Restore(s.db, note); err != nil {
		return nil, err
	}
	note.DeletedAt = gorm.DeletedAt{}
	return note, nil
}

func (s *NoteService) loadNote(companyID, id uint, mode store.QueryMode) (*models.DeliveryNote, error) {
	var note models.DeliveryNote
	err := mode.Apply(s.db).
		Preload("Project").Preload("Client").Preload("User").Preload("Company").
		Where("id = ? AND company_id = ?", id, companyID).
		First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return &note, nil
}
