package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/crucial707/courier/internal/auth"
	"github.com/crucial707/courier/internal/metrics"
	"github.com/crucial707/courier/internal/middleware"
	"github.com/crucial707/courier/internal/models"
	"github.com/crucial707/courier/internal/repo"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Users   *repo.UserRepo
	Issuer  *auth.Issuer
	Revoker auth.Revoker
	Audit   *repo.AuditRepo // optional
}

type credentials struct {
	Username string `json:"username" validate:"required,notblank,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if !decodeAndValidate(w, r, &input) {
		metrics.IncRegistrations("invalid")
		return
	}

	user, err := h.Users.Register(r.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, repo.ErrUsernameTaken) {
			metrics.IncRegistrations("taken")
			JSONError(w, "username already exists", http.StatusConflict)
			return
		}
		if errors.Is(err, repo.ErrPasswordTooLong) {
			metrics.IncRegistrations("invalid")
			JSONValidationError(w, "validation failed", map[string]string{"password": "at most 72 bytes"}, http.StatusBadRequest)
			return
		}
		metrics.IncRegistrations("error")
		internalError(w, r, "register", err)
		return
	}

	metrics.IncRegistrations("ok")
	recordAudit(r, h.Audit, user.ID, models.AuditRegister)
	writeJSON(w, http.StatusCreated, user)
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if !decodeAndValidate(w, r, &input) {
		metrics.IncLogins("invalid")
		return
	}

	user, err := h.Users.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			metrics.IncLogins("invalid")
			JSONError(w, "invalid username or password", http.StatusUnauthorized)
			return
		}
		metrics.IncLogins("error")
		internalError(w, r, "login", err)
		return
	}

	token, claims, err := h.Issuer.Issue(user.ID, user.Username)
	if err != nil {
		metrics.IncLogins("error")
		internalError(w, r, "issue token", err)
		return
	}

	metrics.IncLogins("ok")
	recordAudit(r, h.Audit, user.ID, models.AuditLogin)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: claims.ExpiresAt, User: user})
}

// ==========================
// Logout
// ==========================

// Logout revokes the presented token until it would have expired.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if h.Revoker != nil {
		if err := h.Revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt); err != nil {
			internalError(w, r, "logout", err)
			return
		}
	}
	recordAudit(r, h.Audit, claims.UserID, models.AuditLogout)
	w.WriteHeader(http.StatusNoContent)
}

// ==========================
// Me
// ==========================
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.Users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Token outlived its account.
			JSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		internalError(w, r, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
