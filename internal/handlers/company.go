package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/diewo77/go-albaranes/httpx"
	"github.com/diewo77/go-albaranes/internal/services"
	"github.com/diewo77/go-albaranes/validation"
)

// CompanyHandler serves the tenant itself: upsert-by-CIF registration,
// update and deletion.
type CompanyHandler struct {
	companies *services.CompanyService
}

func NewCompanyHandler(companies *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

func decodeCompany(w http.ResponseWriter, r *http.Request) (services.CompanyInput, bool) {
	var in services.CompanyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return in, false
	}
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	validation.Required("cif", in.CIF, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", v)
		return in, false
	}
	return in, true
}

// Register applies the upsert-by-CIF rule: an existing CIF links the caller
// to that company instead of erroring.
func (h *CompanyHandler) Register(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	in, ok := decodeCompany(w, r)
	if !ok {
		return
	}

	company, linked, err := h.companies.Register(ac.User, in)
	if err != nil {
		h.internal(w, "register", err)
		return
	}
	msg := "Company information updated"
	if linked {
		msg = "Company already exists. Linked user to existing company."
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": msg, "company": company})
}

// Update rewrites the caller's company; a CIF held by another company is a
// conflict here, not a link.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	in, ok := decodeCompany(w, r)
	if !ok {
		return
	}

	company, err := h.companies.Update(ac.User, in)
	if err != nil {
		if errors.Is(err, services.ErrCIFInUse) {
			httpx.JSONError(w, http.StatusConflict, "CIF_ALREADY_IN_USE", nil)
			return
		}
		h.internal(w, "update", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Company updated successfully", "company": company})
}

// Delete removes the caller's company, soft by default.
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}

	if err := h.companies.Delete(ac.User, softParam(r)); err != nil {
		if errors.Is(err, services.ErrNoCompanyLinked) {
			httpx.JSONError(w, http.StatusNotFound, "COMPANY_NOT_ASSOCIATED", nil)
			return
		}
		h.internal(w, "delete", err)
		return
	}
	msg := "COMPANY_SOFT_DELETED"
	if !softParam(r) {
		msg = "COMPANY_HARD_DELETED"
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (h *CompanyHandler) internal(w http.ResponseWriter, op string, err error) {
	log.Printf("company %s: %v", op, err)
	httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", nil)
}
