package handlers

import (
	"log/slog"
	"net/http"

	"github.com/crucial707/courier/internal/repo"
)

// activityLimit caps GET /me/activity.
const activityLimit = 50

// AuditHandler serves the caller's account activity.
type AuditHandler struct {
	Repo *repo.AuditRepo
}

// ListActivity returns the caller's most recent account events, newest first.
func (h *AuditHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	entries, err := h.Repo.Recent(r.Context(), userID, activityLimit)
	if err != nil {
		internalError(w, r, "list activity", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// recordAudit writes an audit entry when a repo is configured. Failures are only logged.
func recordAudit(r *http.Request, audit *repo.AuditRepo, userID int64, action string) {
	if audit == nil {
		return
	}
	if err := audit.Log(r.Context(), userID, action, r.RemoteAddr); err != nil {
		slog.Warn("audit log write failed", "action", action, "user_id", userID, "error", err)
	}
}
