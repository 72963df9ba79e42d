package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/diewo77/go-albaranes/httpx"
	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/policy"
	"github.com/diewo77/go-albaranes/internal/store"
	"github.com/diewo77/go-albaranes/validation"
	"gorm.io/gorm"
)

// ProjectHandler serves company-scoped project CRUD. Cross-tenant ids
// surface as a plain 404 here, unlike the client endpoints which answer
// with an explicit 403.
type ProjectHandler struct {
	db *gorm.DB
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{db: db}
}

type projectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	ClientID    uint       `json:"client_id"`
}

// checkClient verifies the referenced client exists and belongs to the
// caller's company. Attaching another tenant's client is rejected before
// any write.
func (h *ProjectHandler) checkClient(w http.ResponseWriter, clientID, companyID uint) bool {
	client, err := store.First[models.Client](h.db, store.Active, "id = ?", clientID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.internal(w, "check client", err)
		return false
	}
	if client == nil || client.CompanyID != companyID {
		httpx.JSONError(w, http.StatusForbidden, "CLIENT_NOT_ASSOCIATED_WITH_COMPANY", nil)
		return false
	}
	return true
}

// Create registers a project; (name, company) must be unique.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	companyID, ok := requireCompany(w, ac)
	if !ok {
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}
	v := make(validation.Violations)
	validation.Required("name", req.Name, v)
	validation.Required("description", req.Description, v)
	if req.ClientID == 0 {
		v["client_id"] = "required"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", v)
		return
	}

	exists, err := store.Exists[models.Project](h.db, store.Active, "name = ? AND company_id = ?", req.Name, companyID)
	if err != nil {
		h.internal(w, "create", err)
		return
	}
	if exists {
		httpx.JSONError(w, http.StatusConflict, "PROJECT_ALREADY_EXISTS", nil)
		return
	}

	if !h.checkClient(w, req.ClientID, companyID) {
		return
	}

	project := models.Project{
		CompanyID:   companyID,
		ClientID:    req.ClientID,
		UserID:      ac.UserID(),
		Name:        req.Name,
		Description: req.Description,
	}
	if req.StartDate != nil {
		project.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = *req.EndDate
	}
	if err := h.db.Create(&project).Error; err != nil {
		h.internal(w, "create", err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// List returns the company's active projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	companyID, ok := requireCompany(w, ac)
	if !ok {
		return
	}

	projects, err := store.Find[models.Project](h.db, store.Active, "company_id = ?", companyID)
	if err != nil {
		h.internal(w, "list", err)
		return
	}
	httpx.JSON(w, http.StatusOK, projects)
}

// ListArchived returns the company's soft-deleted projects.
func (h *ProjectHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	companyID, ok := requireCompany(w, ac)
	if !ok {
		return
	}

	projects, err := store.Find[models.Project](h.db, store.DeletedOnly, "company_id = ?", companyID)
	if err != nil {
		h.internal(w, "list archived", err)
		return
	}
	httpx.JSON(w, http.StatusOK, projects)
}

// Get returns one project of the caller's company.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, ok := h.fetch(w, r, store.Active)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// Update rewrites a project, re-validating the client reference and the
// per-company name uniqueness.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, ok := h.fetch(w, r, store.Active)
	if !ok {
		return
	}
	companyID := project.CompanyID

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}

	if req.ClientID != 0 {
		if !h.checkClient(w, req.ClientID, companyID) {
			return
		}
		project.ClientID = req.ClientID
	}
	if req.Name != "" && req.Name != project.Name {
		dup, err := store.Exists[models.Project](h.db, store.Active,
			"name = ? AND company_id = ? AND id <> ?", req.Name, companyID, project.ID)
		if err != nil {
			h.internal(w, "update", err)
			return
		}
		if dup {
			httpx.JSONError(w, http.StatusConflict, "PROJECT_NAME_ALREADY_EXISTS", nil)
			return
		}
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.StartDate != nil {
		project.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = *req.EndDate
	}

	if err := h.db.Save(project).Error; err != nil {
		h.internal(w, "update", err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// Delete removes a project, soft by default.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, ok := h.fetch(w, r, store.Active)
	if !ok {
		return
	}

	if softParam(r) {
		if err := store.SoftDelete(h.db, project); err != nil {
			h.internal(w, "soft delete", err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "Project deleted (soft)"})
		return
	}
	if err := store.HardDelete(h.db, project); err != nil {
		h.internal(w, "hard delete", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Project permanently deleted"})
}

// Restore brings a soft-deleted project back.
func (h *ProjectHandler) Restore(w http.ResponseWriter, r *http.Request) {
	project, ok := h.fetch(w, r, store.IncludeDeleted)
	if !ok {
		return
	}
	if err := store.Restore(h.db, project); err != nil {
		if errors.Is(err, store.ErrNotSoftDeleted) {
			httpx.JSONError(w, http.StatusNotFound, "PROJECT_NOT_FOUND_OR_NOT_DELETED", nil)
			return
		}
		h.internal(w, "restore", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Project recovered successfully"})
}

// fetch loads a project by id under the given mode and gates it through the
// not-found tenant policy, so absence and cross-tenant ids are
// indistinguishable (404).
func (h *ProjectHandler) fetch(w http.ResponseWriter, r *http.Request, mode store.QueryMode) (*models.Project, bool) {
	ac, ok := authCtx(w, r)
	if !ok {
		return nil, false
	}
	if _, ok := requireCompany(w, ac); !ok {
		return nil, false
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_PROJECT_ID", nil)
		return nil, false
	}

	project, err := store.First[models.Project](h.db, mode, "id = ?", id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "PROJECT_NOT_FOUND", nil)
			return nil, false
		}
		h.internal(w, "fetch", err)
		return nil, false
	}
	if err := ac.CheckTenant(project.CompanyID, policy.MismatchNotFound); err != nil {
		httpx.JSONError(w, http.StatusNotFound, "PROJECT_NOT_FOUND", nil)
		return nil, false
	}
	return project, true
}

func (h *ProjectHandler) internal(w http.ResponseWriter, op string, err error) {
	log.Printf("project %s: %v", op, err)
	httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", nil)
}
