package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/diewo77/go-albaranes/auth"
	"github.com/diewo77/go-albaranes/httpx"
	"github.com/diewo77/go-albaranes/internal/mail"
	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/store"
	"github.com/diewo77/go-albaranes/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler serves registration, login and account verification.
type AuthHandler struct {
	db   *gorm.DB
	mail mail.Sender
}

func NewAuthHandler(db *gorm.DB, sender mail.Sender) *AuthHandler {
	return &AuthHandler{db: db, mail: sender}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Surnames string `json:"surnames"`
	NIF      string `json:"nif"`
}

// Register creates an unverified account, emails a 6-digit code and returns
// a verification-scoped token. The code is also echoed in the response
// body, so clients without mail access can complete verification.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	v := make(validation.Violations)
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	validation.Required("password", req.Password, v)
	validation.MinLength("password", req.Password, 8, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", v)
		return
	}

	exists, err := store.Exists[models.User](h.db, store.Active, "email = ?", req.Email)
	if err != nil {
		h.internal(w, "register", err)
		return
	}
	if exists {
		httpx.JSONError(w, http.StatusConflict, "USER_EXISTS", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internal(w, "register", err)
		return
	}

	code := generateCode()
	user := models.User{
		Email:    req.Email,
		Name:     req.Name,
		Surnames: req.Surnames,
		NIF:      req.NIF,
		Password: string(hash),
		Role:     models.RoleUser,
		Code:     &code,
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.internal(w, "register", err)
		return
	}

	token, err := auth.SignVerification(user.ID, user.Role)
	if err != nil {
		h.internal(w, "register", err)
		return
	}

	subject := fmt.Sprintf("Your verification code is: %s", code)
	html := fmt.Sprintf("<h1>Your verification code is: %s</h1>", code)
	if err := h.mail.Send(user.Email, subject, "", html); err != nil {
		h.internal(w, "register mail", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":           "Registration pending verification. Check your email.",
		"verificationToken": token,
		"code":              code,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates by email and password. Guests bypass the
// verification gate and are auto-verified on first successful login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	// Deleted users must be distinguishable from absent ones, so the
	// lookup includes soft-deleted records.
	user, err := store.First[models.User](h.db, store.IncludeDeleted, "email = ?", req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "USER_NOT_EXISTS", nil)
			return
		}
		h.internal(w, "login", err)
		return
	}

	if !user.IsVerified && user.Role != models.RoleGuest {
		httpx.JSONError(w, http.StatusForbidden, "USER_NOT_VERIFIED", nil)
		return
	}
	if user.Role == models.RoleGuest && !user.IsVerified {
		user.IsVerified = true
		if err := h.db.Model(user).Update("is_verified", true).Error; err != nil {
			h.internal(w, "login", err)
			return
		}
	}

	if user.Deleted() {
		httpx.JSONError(w, http.StatusForbidden, "USER_DELETED", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "INVALID_PASSWORD", nil)
		return
	}

	token, err := auth.SignAccess(user.ID, user.Role)
	if err != nil {
		h.internal(w, "login", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

type verifyRequest struct {
	Code string `json:"code"`
}

// Verify completes registration with the emailed code. It only accepts
// verification-scoped tokens; a full access token is refused here just as
// a verification token is refused everywhere else.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	tokenStr, err := auth.FromHeader(r)
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", nil)
		return
	}
	claims, err := auth.Verify(tokenStr)
	if err != nil || !claims.VerificationPending {
		httpx.JSONError(w, http.StatusUnauthorized, "INVALID_TOKEN", nil)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}
	v := make(validation.Violations)
	validation.SixDigitCode("code", req.Code, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", v)
		return
	}

	user, err := store.First[models.User](h.db, store.Active, "id = ?", claims.UID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "USER_NOT_FOUND", nil)
			return
		}
		h.internal(w, "verify", err)
		return
	}

	if user.IsVerified {
		httpx.JSONError(w, http.StatusBadRequest, "USER_VERIFIED", nil)
		return
	}
	// A code mismatch answers 402; clients key on the status.
	if user.Code == nil || *user.Code != req.Code {
		httpx.JSONError(w, http.StatusPaymentRequired, "INCORRECT_CODE", nil)
		return
	}

	user.IsVerified = true
	user.Code = nil
	if err := h.db.Model(user).Select("is_verified", "code").Updates(map[string]any{
		"is_verified": true,
		"code":        nil,
	}).Error; err != nil {
		h.internal(w, "verify", err)
		return
	}

	token, err := auth.SignAccess(user.ID, user.Role)
	if err != nil {
		h.internal(w, "verify", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "VERIFIED",
		"token":   token,
	})
}

func (h *AuthHandler) internal(w http.ResponseWriter, op string, err error) {
	log.Printf("auth %s: %v", op, err)
	httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", nil)
}
