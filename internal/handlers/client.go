package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/diewo77/go-albaranes/httpx"
	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/policy"
	"github.com/diewo77/go-albaranes/internal/store"
	"github.com/diewo77/go-albaranes/validation"
	"gorm.io/gorm"
)

// ClientHandler serves company-scoped client CRUD. Cross-tenant access is
// surfaced as an explicit 403 here: the client is looked up by id first and
// its company compared afterwards, unlike the project and delivery-note
// endpoints which fold the tenant check into the query.
type ClientHandler struct {
	db *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

type clientRequest struct {
	Name     string `json:"name"`
	Street   string `json:"street"`
	Number   int    `json:"number"`
	Postal   int    `json:"postal"`
	City     string `json:"city"`
	Province string `json:"province"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (req *clientRequest) validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("name", req.Name, v)
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	return v
}

// Create registers a client under the caller's company. The (email,
// company) pair must be unique within the tenant.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	companyID, ok := requireCompany(w, ac)
	if !ok {
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", v)
		return
	}

	exists, err := store.Exists[models.Client](h.db, store.Active, "email = ? AND company_id = ?", req.Email, companyID)
	if err != nil {
		h.internal(w, "create", err)
		return
	}
	if exists {
		httpx.JSONError(w, http.StatusConflict, "CLIENT_ALREADY_EXISTS", nil)
		return
	}

	client := models.Client{
		CompanyID: companyID,
		Name:      req.Name,
		Street:    req.Street,
		Number:    req.Number,
		Postal:    req.Postal,
		City:      req.City,
		Province:  req.Province,
		Phone:     req.Phone,
		Email:     req.Email,
		Role:      req.Role,
	}
	if err := h.db.Create(&client).Error; err != nil {
		h.internal(w, "create", err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

// List returns the company's active clients.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	companyID, ok := requireCompany(w, ac)
	if !ok {
		return
	}

	clients, err := store.Find[models.Client](h.db, store.Active, "company_id = ?", companyID)
	if err != nil {
		h.internal(w, "list", err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

// ListArchived returns the company's soft-deleted clients.
func (h *ClientHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	companyID, ok := requireCompany(w, ac)
	if !ok {
		return
	}

	clients, err := store.Find[models.Client](h.db, store.DeletedOnly, "company_id = ?", companyID)
	if err != nil {
		h.internal(w, "list archived", err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

// Get returns one client; a client of another company yields 403, not 404.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	client, ok := h.fetch(w, r, "UNAUTHORIZED_CLIENT_ACCESS")
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

// Update rewrites a client of the caller's company.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	client, ok := h.fetch(w, r, "UNAUTHORIZED_CLIENT_UPDATE")
	if !ok {
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", v)
		return
	}

	client.Name = req.Name
	client.Street = req.Street
	client.Number = req.Number
	client.Postal = req.Postal
	client.City = req.City
	client.Province = req.Province
	client.Phone = req.Phone
	client.Email = req.Email
	client.Role = req.Role

	if err := h.db.Save(client).Error; err != nil {
		h.internal(w, "update", err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

// Delete removes a client, soft by default. Hard delete does not cascade:
// projects keep their now-dangling client reference.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	client, ok := h.fetch(w, r, "UNAUTHORIZED_CLIENT_DELETE")
	if !ok {
		return
	}

	if softParam(r) {
		if err := store.SoftDelete(h.db, client); err != nil {
			h.internal(w, "soft delete", err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "Client deleted (soft)"})
		return
	}
	if err := store.HardDelete(h.db, client); err != nil {
		h.internal(w, "hard delete", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Client permanently deleted"})
}

// Restore brings a soft-deleted client back.
func (h *ClientHandler) Restore(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	if _, ok := requireCompany(w, ac); !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_CLIENT_ID", nil)
		return
	}

	client, err := store.First[models.Client](h.db, store.IncludeDeleted, "id = ?", id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "CLIENT_NOT_FOUND", nil)
			return
		}
		h.internal(w, "restore", err)
		return
	}
	if !client.Deleted() {
		httpx.JSONError(w, http.StatusBadRequest, "CLIENT_NOT_SOFT_DELETED", nil)
		return
	}
	if err := ac.CheckTenant(client.CompanyID, policy.MismatchForbidden); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "UNAUTHORIZED_CLIENT_RESTORE", nil)
		return
	}

	if err := store.Restore(h.db, client); err != nil {
		h.internal(w, "restore", err)
		return
	}
	client.DeletedAt = gorm.DeletedAt{}
	httpx.JSON(w, http.StatusOK, client)
}

// fetch loads the client by id and enforces the lookup-then-compare tenant
// policy, writing the appropriate error response on failure.
func (h *ClientHandler) fetch(w http.ResponseWriter, r *http.Request, mismatchCode string) (*models.Client, bool) {
	ac, ok := authCtx(w, r)
	if !ok {
		return nil, false
	}
	if _, ok := requireCompany(w, ac); !ok {
		return nil, false
	}
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_CLIENT_ID", nil)
		return nil, false
	}

	client, err := store.First[models.Client](h.db, store.Active, "id = ?", id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "CLIENT_NOT_FOUND", nil)
			return nil, false
		}
		h.internal(w, "fetch", err)
		return nil, false
	}
	if err := ac.CheckTenant(client.CompanyID, policy.MismatchForbidden); err != nil {
		httpx.JSONError(w, http.StatusForbidden, mismatchCode, nil)
		return nil, false
	}
	return client, true
}

func (h *ClientHandler) internal(w http.ResponseWriter, op string, err error) {
	log.Printf("client %s: %v", op, err)
	httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", nil)
}
