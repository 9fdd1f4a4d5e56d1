package handlers

import (
	"errors"
	"net/http"

	"github.com/crucial707/courier/internal/repo"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Users *repo.UserRepo
}

// ==========================
// List Users
// ==========================

// ListUsers returns everyone except the caller.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	users, err := h.Users.ListOthers(r.Context(), userID)
	if err != nil {
		internalError(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ==========================
// Get User
// ==========================
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	user, err := h.Users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
