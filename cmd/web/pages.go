package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// apiFailure handles an API error for a protected page: 401 goes to login, anything
// else is rendered into the page's error slot.
func (s *server) apiFailure(w http.ResponseWriter, r *http.Request, page, title string, err error) {
	if errors.Is(err, errUnauthorized) {
		clearAuthAndRedirectToLogin(w, r)
		return
	}
	status := http.StatusBadGateway
	if st := statusOf(err); st >= 400 && st < 500 {
		status = st
	}
	s.render(w, r, status, page, pageData{Title: title, Error: userMessage(err)})
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// ==========================
// Index
// ==========================
func (s *server) index(w http.ResponseWriter, r *http.Request) {
	pd := pageData{Title: "Courier"}
	if tok := tokenFrom(r); tok != "" {
		var me user
		if err := s.api.get(r.Context(), "/me", tok, &me); err == nil {
			pd.User = &me
		}
	}
	s.render(w, r, http.StatusOK, "index.html", pd)
}

// ==========================
// Register
// ==========================
func (s *server) registerForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register.html", pageData{Title: "Register"})
}

func (s *server) registerSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")
	if strings.TrimSpace(username) == "" || password == "" {
		s.render(w, r, http.StatusBadRequest, "register.html", pageData{
			Title: "Register", Error: "Username and password are required", Data: username,
		})
		return
	}

	err := s.api.post(r.Context(), "/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	if err != nil {
		msg := userMessage(err)
		if statusOf(err) == http.StatusConflict {
			msg = "Username already exists"
		}
		s.render(w, r, http.StatusOK, "register.html", pageData{Title: "Register", Error: msg, Data: username})
		return
	}

	setFlash(w, "Registration successful. Please log in.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// ==========================
// Login / Logout
// ==========================
func (s *server) loginForm(w http.ResponseWriter, r *http.Request) {
	if tokenFrom(r) != "" {
		http.Redirect(w, r, "/messages", http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", pageData{Title: "Log in", Data: r.URL.Query().Get("next")})
}

func (s *server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	next := r.FormValue("next")
	if next == "" {
		next = r.URL.Query().Get("next")
	}

	var out struct {
		Token     string    `json:"token"`
		User      user      `json:"user"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	err := s.api.post(r.Context(), "/auth/login", "", map[string]string{
		"username": r.FormValue("username"),
		"password": r.FormValue("password"),
	}, &out)
	if err != nil || out.Token == "" {
		msg := "Invalid username or password"
		if st := statusOf(err); err != nil && st != http.StatusUnauthorized && st != http.StatusBadRequest {
			msg = userMessage(err)
		}
		s.render(w, r, http.StatusOK, "login.html", pageData{Title: "Log in", Error: msg, Data: next})
		return
	}

	setToken(w, r, out.Token, cookieLifetime(out.ExpiresAt))
	setFlash(w, "Logged in as "+out.User.Username)
	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	if tok := tokenFrom(r); tok != "" {
		// Best effort; the cookie goes either way.
		_ = s.api.post(r.Context(), "/auth/logout", tok, nil, nil)
	}
	clearToken(w)
	setFlash(w, "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// ==========================
// Users
// ==========================
func (s *server) usersList(w http.ResponseWriter, r *http.Request) {
	var users []user
	if err := s.api.get(r.Context(), "/users", tokenFrom(r), &users); err != nil {
		s.apiFailure(w, r, "users.html", "Users", err)
		return
	}
	s.render(w, r, http.StatusOK, "users.html", pageData{Title: "Users", Data: users})
}

// ==========================
// Inbox
// ==========================
func (s *server) inbox(w http.ResponseWriter, r *http.Request) {
	var msgs []message
	if err := s.api.get(r.Context(), "/messages", tokenFrom(r), &msgs); err != nil {
		s.apiFailure(w, r, "messages.html", "Inbox", err)
		return
	}
	s.render(w, r, http.StatusOK, "messages.html", pageData{Title: "Inbox", Data: msgs})
}

// ==========================
// Send
// ==========================
func (s *server) sendForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var recipient user
	if err := s.api.get(r.Context(), fmt.Sprintf("/users/%d", id), tokenFrom(r), &recipient); err != nil {
		s.apiFailure(w, r, "send_message.html", "Send message", err)
		return
	}
	s.render(w, r, http.StatusOK, "send_message.html", pageData{Title: "Send message", Data: recipient})
}

func (s *server) sendSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	body := r.FormValue("body")
	tok := tokenFrom(r)

	if strings.TrimSpace(body) == "" {
		var recipient user
		_ = s.api.get(r.Context(), fmt.Sprintf("/users/%d", id), tok, &recipient)
		s.render(w, r, http.StatusBadRequest, "send_message.html", pageData{
			Title: "Send message", Error: "Message cannot be empty", Data: recipient,
		})
		return
	}

	if err := s.api.post(r.Context(), fmt.Sprintf("/users/%d/messages", id), tok, map[string]string{"body": body}, nil); err != nil {
		s.apiFailure(w, r, "send_message.html", "Send message", err)
		return
	}
	setFlash(w, "Message sent.")
	http.Redirect(w, r, fmt.Sprintf("/conversation/%d", id), http.StatusFound)
}

// ==========================
// Reply
// ==========================
func (s *server) replyForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var original message
	if err := s.api.get(r.Context(), fmt.Sprintf("/messages/%d", id), tokenFrom(r), &original); err != nil {
		s.apiFailure(w, r, "reply_message.html", "Reply", err)
		return
	}
	s.render(w, r, http.StatusOK, "reply_message.html", pageData{Title: "Reply", Data: original})
}

func (s *server) replySubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	body := r.FormValue("body")
	tok := tokenFrom(r)

	if strings.TrimSpace(body) == "" {
		var original message
		_ = s.api.get(r.Context(), fmt.Sprintf("/messages/%d", id), tok, &original)
		s.render(w, r, http.StatusBadRequest, "reply_message.html", pageData{
			Title: "Reply", Error: "Message cannot be empty", Data: original,
		})
		return
	}

	var sent message
	if err := s.api.post(r.Context(), fmt.Sprintf("/messages/%d/reply", id), tok, map[string]string{"body": body}, &sent); err != nil {
		s.apiFailure(w, r, "reply_message.html", "Reply", err)
		return
	}
	setFlash(w, "Reply sent.")
	if sent.RecipientID == 0 {
		http.Redirect(w, r, "/messages", http.StatusFound)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/conversation/%d", sent.RecipientID), http.StatusFound)
}

// ==========================
// Conversations
// ==========================
func (s *server) conversations(w http.ResponseWriter, r *http.Request) {
	var partners []user
	if err := s.api.get(r.Context(), "/conversations", tokenFrom(r), &partners); err != nil {
		s.apiFailure(w, r, "conversations.html", "Conversations", err)
		return
	}
	s.render(w, r, http.StatusOK, "conversations.html", pageData{Title: "Conversations", Data: partners})
}

func (s *server) conversation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var t thread
	if err := s.api.get(r.Context(), fmt.Sprintf("/conversations/%d", id), tokenFrom(r), &t); err != nil {
		s.apiFailure(w, r, "conversation.html", "Conversation", err)
		return
	}
	s.render(w, r, http.StatusOK, "conversation.html", pageData{Title: "Conversation with " + t.Other.Username, Data: t})
}

func (s *server) conversationPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	body := r.FormValue("body")
	if strings.TrimSpace(body) == "" {
		setFlash(w, "Message cannot be empty.")
		http.Redirect(w, r, fmt.Sprintf("/conversation/%d", id), http.StatusFound)
		return
	}

	if err := s.api.post(r.Context(), fmt.Sprintf("/conversations/%d", id), tokenFrom(r), map[string]string{"body": body}, nil); err != nil {
		s.apiFailure(w, r, "conversation.html", "Conversation", err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/conversation/%d", id), http.StatusFound)
}
