package handlers

import (
	"errors"
	"net/http"

	"github.com/crucial707/courier/internal/metrics"
	"github.com/crucial707/courier/internal/models"
	"github.com/crucial707/courier/internal/repo"
)

// MessageHandler serves the inbox, direct sends, replies and conversation threads.
type MessageHandler struct {
	Users    *repo.UserRepo
	Messages *repo.MessageRepo
}

type messageInput struct {
	Body string `json:"body" validate:"required,notblank,max=10000"`
}

type threadResponse struct {
	Other    *models.User     `json:"other"`
	Messages []models.Message `json:"messages"`
}

// send stores a message from the caller to recipientID and writes 201 or the mapped error.
func (h *MessageHandler) send(w http.ResponseWriter, r *http.Request, senderID, recipientID int64, body string) {
	msg, err := h.Messages.Send(r.Context(), senderID, recipientID, body)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "send message", err)
		return
	}
	metrics.IncMessagesSent()
	writeJSON(w, http.StatusCreated, msg)
}

// ==========================
// Inbox
// ==========================
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	msgs, err := h.Messages.Inbox(r.Context(), userID)
	if err != nil {
		internalError(w, r, "inbox", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// ==========================
// Send To User
// ==========================

// SendToUser handles POST /users/{id}/messages.
func (h *MessageHandler) SendToUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	recipientID, ok := pathID(r, "id")
	if !ok {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}
	var input messageInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	h.send(w, r, userID, recipientID, input.Body)
}

// ==========================
// Get Message
// ==========================

// GetMessage returns a message only to its sender or recipient. Anyone else gets 404.
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	msg, ok := h.participantMessage(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) participantMessage(w http.ResponseWriter, r *http.Request, userID int64) (*models.Message, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		JSONError(w, "invalid message id", http.StatusBadRequest)
		return nil, false
	}
	msg, err := h.Messages.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "message not found", http.StatusNotFound)
			return nil, false
		}
		internalError(w, r, "get message", err)
		return nil, false
	}
	if !msg.Involves(userID) {
		JSONError(w, "message not found", http.StatusNotFound)
		return nil, false
	}
	return msg, true
}

// ==========================
// Reply
// ==========================

// Reply sends a message back to the sender of message {id}. Only participants of
// the original may reply; a sender replying to their own message writes to themselves.
func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	original, ok := h.participantMessage(w, r, userID)
	if !ok {
		return
	}
	var input messageInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	h.send(w, r, userID, original.SenderID, input.Body)
}

// ==========================
// Conversations
// ==========================
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	partners, err := h.Messages.ConversationPartners(r.Context(), userID)
	if err != nil {
		internalError(w, r, "conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, partners)
}

// Thread returns the counterparty and the messages exchanged with them, oldest first.
func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	otherID, ok := pathID(r, "id")
	if !ok {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	other, err := h.Users.Get(r.Context(), otherID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "thread user", err)
		return
	}

	msgs, err := h.Messages.Thread(r.Context(), userID, otherID)
	if err != nil {
		internalError(w, r, "thread", err)
		return
	}
	writeJSON(w, http.StatusOK, threadResponse{Other: other, Messages: msgs})
}

// PostToConversation appends a message to the thread with user {id}.
func (h *MessageHandler) PostToConversation(w http.ResponseWriter, r *http.Request) {
	h.SendToUser(w, r)
}
