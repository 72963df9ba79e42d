package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/diewo77/go-albaranes/httpx"
	"github.com/diewo77/go-albaranes/internal/mail"
	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/store"
	"github.com/diewo77/go-albaranes/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserHandler serves the authenticated user's profile plus the admin-side
// user administration endpoints.
type UserHandler struct {
	db   *gorm.DB
	mail mail.Sender
}

func NewUserHandler(db *gorm.DB, sender mail.Sender) *UserHandler {
	return &UserHandler{db: db, mail: sender}
}

// Get returns the caller's profile, or any user's profile when an id path
// segment is present (admin route).
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}

	targetID := ac.UserID()
	if id, ok := pathID(r); ok {
		if id != ac.UserID() && !ac.IsAdmin() {
			httpx.JSONError(w, http.StatusForbidden, "FORBIDDEN", nil)
			return
		}
		targetID = id
	}

	user, err := store.First[models.User](h.db, store.IncludeDeleted, "id = ?", targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "USER_NOT_FOUND", nil)
			return
		}
		h.internal(w, "get", err)
		return
	}
	if user.Deleted() {
		httpx.JSONError(w, http.StatusForbidden, "USER_DELETED", nil)
		return
	}
	if user.CompanyID != nil {
		if err := h.db.Preload("Company").First(user, user.ID).Error; err != nil {
			h.internal(w, "get", err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Surnames *string `json:"surnames"`
	NIF      *string `json:"nif"`
	Email    *string `json:"email"`
}

// Update applies a partial profile update to the caller's account.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}

	updates := map[string]any{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.Surnames != nil && *req.Surnames != "" {
		updates["surnames"] = *req.Surnames
	}
	if req.NIF != nil && *req.NIF != "" {
		updates["nif"] = *req.NIF
	}
	if req.Email != nil && *req.Email != "" {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		v := make(validation.Violations)
		validation.Email("email", email, v)
		if !v.Empty() {
			httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", v)
			return
		}
		updates["email"] = email
	}
	if len(updates) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "NO_FIELDS_TO_UPDATE", nil)
		return
	}

	if err := h.db.Model(ac.User).Updates(updates).Error; err != nil {
		h.internal(w, "update", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "USER_UPDATED", "user": ac.User})
}

// Delete removes the caller's own account, soft by default.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	h.delete(w, r, ac.User)
}

// DeleteByAdmin removes any account by id. Admin only.
func (h *UserHandler) DeleteByAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_USER_ID", nil)
		return
	}
	user, err := store.First[models.User](h.db, store.Active, "id = ?", id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "USER_NOT_FOUND", nil)
			return
		}
		h.internal(w, "delete by admin", err)
		return
	}
	h.delete(w, r, user)
}

func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request, user *models.User) {
	if softParam(r) {
		if err := store.SoftDelete(h.db, user); err != nil {
			h.internal(w, "soft delete", err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "USER_SOFT_DELETED"})
		return
	}
	if err := store.HardDelete(h.db, user); err != nil {
		h.internal(w, "hard delete", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "USER_HARD_DELETED"})
}

// Restore brings a soft-deleted account back. Admin only.
func (h *UserHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_USER_ID", nil)
		return
	}
	user, err := store.First[models.User](h.db, store.IncludeDeleted, "id = ?", id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "USER_NOT_FOUND", nil)
			return
		}
		h.internal(w, "restore", err)
		return
	}
	if err := store.Restore(h.db, user); err != nil {
		if errors.Is(err, store.ErrNotSoftDeleted) {
			httpx.JSONError(w, http.StatusBadRequest, "USER_NOT_SOFT_DELETED", nil)
			return
		}
		h.internal(w, "restore", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "USER_RESTORED_BY_ADMIN"})
}

type guestRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Surnames string `json:"surnames"`
	NIF      string `json:"nif"`
	Password string `json:"password"`
}

// RegisterGuest provisions a guest account inside the caller's company.
// Guests are created verified; when a password is supplied the credentials
// are emailed to the new user.
func (h *UserHandler) RegisterGuest(w http.ResponseWriter, r *http.Request) {
	ac, ok := authCtx(w, r)
	if !ok {
		return
	}
	companyID, err := ac.RequireCompany()
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "COMPANY_NOT_ASSOCIATED", nil)
		return
	}
	if _, err := store.First[models.Company](h.db, store.Active, "id = ?", companyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "COMPANY_NOT_FOUND", nil)
			return
		}
		h.internal(w, "guest", err)
		return
	}

	var req guestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	v := make(validation.Violations)
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", v)
		return
	}

	guest := models.User{
		Email:      req.Email,
		Name:       req.Name,
		Surnames:   req.Surnames,
		NIF:        req.NIF,
		Role:       models.RoleGuest,
		IsVerified: true,
		CompanyID:  &companyID,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.internal(w, "guest", err)
			return
		}
		guest.Password = string(hash)
	}
	if err := h.db.Create(&guest).Error; err != nil {
		h.internal(w, "guest", err)
		return
	}

	if req.Password != "" {
		fullName := strings.TrimSpace(req.Name + " " + req.Surnames)
		html := fmt.Sprintf(
			"<h2>Hello %s!</h2><p>A guest account was created for you.</p>"+
				"<p><strong>Email:</strong> %s</p><p><strong>Password:</strong> %s</p>",
			fullName, req.Email, req.Password,
		)
		if err := h.mail.Send(req.Email, "Your access credentials", "", html); err != nil {
			h.internal(w, "guest mail", err)
			return
		}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"message": "USER_REGISTERED", "user": guest})
}

type requestResetRequest struct {
	Email string `json:"email"`
}

// RequestReset issues a fresh 6-digit recovery code and resets the
// recovery-attempt counter. The counter is maintained but not yet enforced
// as a lockout.
func (h *UserHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := store.First[models.User](h.db, store.Active, "email = ?", req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "USER_NOT_FOUND", nil)
			return
		}
		h.internal(w, "request reset", err)
		return
	}

	code := generateCode()
	if err := h.db.Model(user).Updates(map[string]any{
		"code":              code,
		"recovery_attempts": 0,
	}).Error; err != nil {
		h.internal(w, "request reset", err)
		return
	}

	html := fmt.Sprintf("<p>Your password reset code is: <strong>%s</strong></p>", code)
	if err := h.mail.Send(user.Email, "Password recovery", "", html); err != nil {
		h.internal(w, "request reset mail", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"message": "RECOVERY_CODE_SENT"})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword replaces the password hash when the recovery code matches,
// then clears the code.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	v := make(validation.Violations)
	validation.SixDigitCode("code", req.Code, v)
	validation.Required("newPassword", req.NewPassword, v)
	validation.MinLength("newPassword", req.NewPassword, 8, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_CODE", v)
		return
	}

	user, err := store.First[models.User](h.db, store.Active, "email = ?", req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.internal(w, "reset password", err)
		return
	}
	// A wrong email and a wrong code are indistinguishable on purpose.
	if user == nil || user.Code == nil || *user.Code != req.Code {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_CODE", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.internal(w, "reset password", err)
		return
	}
	if err := h.db.Model(user).Select("password", "code", "recovery_attempts").Updates(map[string]any{
		"password":          string(hash),
		"code":              nil,
		"recovery_attempts": 0,
	}).Error; err != nil {
		h.internal(w, "reset password", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"message": "PASSWORD_RESET_SUCCESS"})
}

func (h *UserHandler) internal(w http.ResponseWriter, op string, err error) {
	log.Printf("user %s: %v", op, err)
	httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", nil)
}
