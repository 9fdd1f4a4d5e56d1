package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/crucial707/courier/internal/auth"
	"github.com/crucial707/courier/internal/config"
	"github.com/crucial707/courier/internal/db"
	"github.com/crucial707/courier/internal/handlers"
	"github.com/crucial707/courier/internal/middleware"
	"github.com/crucial707/courier/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// app holds the wired dependencies behind the HTTP API.
type app struct {
	db       *sql.DB
	cfg      config.Config
	users    *repo.UserRepo
	messages *repo.MessageRepo
	audit    *repo.AuditRepo
	issuer   *auth.Issuer
	revoker  auth.Revoker
	limiter  *middleware.IPRateLimiter
}

func newApp(conn *sql.DB, cfg config.Config, revoker auth.Revoker) (*app, error) {
	dialect, err := db.DialectOf(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	if revoker == nil {
		revoker = auth.NewMemoryRevoker()
	}
	return &app{
		db:       conn,
		cfg:      cfg,
		users:    repo.NewUserRepo(conn, dialect),
		messages: repo.NewMessageRepo(conn, dialect),
		audit:    repo.NewAuditRepo(conn, dialect),
		issuer:   auth.NewIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpireHours)*time.Hour),
		revoker:  revoker,
		limiter:  middleware.AuthRateLimiter(cfg.AuthRatePerMinute),
	}, nil
}

// newRouter builds the full API handler.
func newRouter(conn *sql.DB, cfg config.Config, revoker auth.Revoker) (http.Handler, error) {
	a, err := newApp(conn, cfg, revoker)
	if err != nil {
		return nil, err
	}
	return a.routes(), nil
}

func (a *app) routes() http.Handler {
	authH := &handlers.AuthHandler{Users: a.users, Issuer: a.issuer, Revoker: a.revoker, Audit: a.audit}
	auditH := &handlers.AuditHandler{Repo: a.audit}
	userH := &handlers.UserHandler{Users: a.users}
	msgH := &handlers.MessageHandler{Users: a.users, Messages: a.messages}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(middleware.APIContentSecurityPolicy, a.cfg.TLSEnabled()))
	r.Use(middleware.CORS(a.cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// ==========================
	// Public
	// ==========================
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", a.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(a.limiter.Middleware)
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
	})

	// ==========================
	// Authenticated
	// ==========================
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(a.issuer, a.revoker))

		r.Post("/auth/logout", authH.Logout)
		r.Get("/me", authH.Me)
		r.Get("/me/activity", auditH.ListActivity)

		r.Get("/users", userH.ListUsers)
		r.Get("/users/{id}", userH.GetUser)
		r.Post("/users/{id}/messages", msgH.SendToUser)

		r.Get("/messages", msgH.Inbox)
		r.Get("/messages/{id}", msgH.GetMessage)
		r.Post("/messages/{id}/reply", msgH.Reply)

		r.Get("/conversations", msgH.Conversations)
		r.Get("/conversations/{id}", msgH.Thread)
		r.Post("/conversations/{id}", msgH.PostToConversation)
	})

	return r
}

// ready reports whether the database answers a ping.
func (a *app) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ready"))
}
