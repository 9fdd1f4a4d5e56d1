package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	cookieName = "courier_token"
	flashName  = "courier_flash"
)

type ctxKey struct{}

// requireAuth redirects to /login when there is no token or the API no longer accepts it.
// The signed-in user is stored in the request context for the pages.
func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := tokenFrom(r)
		if tok == "" {
			redirectToLogin(w, r)
			return
		}
		var me user
		if err := s.api.get(r.Context(), "/me", tok, &me); err != nil {
			if errors.Is(err, errUnauthorized) {
				clearAuthAndRedirectToLogin(w, r)
				return
			}
			http.Error(w, "API unavailable", http.StatusBadGateway)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, &me)))
	})
}

func currentUser(r *http.Request) *user {
	u, _ := r.Context().Value(ctxKey{}).(*user)
	return u
}

func tokenFrom(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func setToken(w http.ResponseWriter, r *http.Request, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// cookieLifetime is the MaxAge, in seconds, for a token expiring at exp. A missing or
// past expiry falls back to one day.
func cookieLifetime(exp time.Time) int {
	if secs := int(time.Until(exp).Seconds()); !exp.IsZero() && secs > 0 {
		return secs
	}
	return 24 * 3600
}

func clearToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Path
	if r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, "/login?next="+url.QueryEscape(next), http.StatusFound)
}

// clearAuthAndRedirectToLogin drops an expired or revoked token and sends the user to sign in again.
func clearAuthAndRedirectToLogin(w http.ResponseWriter, r *http.Request) {
	clearToken(w)
	setFlash(w, "Your session has expired. Please log in again.")
	redirectToLogin(w, r)
}

// safeNext accepts only local absolute paths as a post-login destination.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/messages"
	}
	return next
}

// ==========================
// Flash messages
// ==========================

// setFlash stores a one-shot message shown on the next rendered page.
func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashName,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns and clears the pending flash message.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashName)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashName, Value: "", Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
