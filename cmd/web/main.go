package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/courier/internal/logging"
	"github.com/crucial707/courier/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

const (
	defaultPort = "3000"
	defaultAPI  = "http://localhost:8080"
	envWebPort  = "COURIER_WEB_PORT"
	envAPIURL   = "COURIER_API_URL"
)

func main() {
	_ = godotenv.Load()
	logging.Setup(os.Stderr, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))

	port := getEnv(envWebPort, defaultPort)
	apiBase := getEnv(envAPIURL, defaultAPI)

	pages, err := loadPages()
	if err != nil {
		slog.Error("parse templates", "error", err)
		os.Exit(1)
	}
	s := &server{
		api:   newAPIClient(apiBase),
		pages: pages,
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("web UI running", "addr", "http://localhost:"+port, "api", apiBase)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("web server", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// server renders the HTML front end on top of the JSON API.
type server struct {
	api   *apiClient
	pages map[string]*pageTemplate
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.SecurityHeaders(middleware.WebContentSecurityPolicy, false))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// Health (no auth, no templates)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Public
	r.Get("/", s.index)
	r.Get("/register", s.registerForm)
	r.Post("/register", s.registerSubmit)
	r.Get("/login", s.loginForm)
	r.Post("/login", s.loginSubmit)
	r.Get("/logout", s.logout)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/users", s.usersList)
		r.Get("/messages", s.inbox)
		r.Get("/send_message/{id}", s.sendForm)
		r.Post("/send_message/{id}", s.sendSubmit)
		r.Get("/reply_message/{id}", s.replyForm)
		r.Post("/reply_message/{id}", s.replySubmit)
		r.Get("/conversations", s.conversations)
		r.Get("/conversation/{id}", s.conversation)
		r.Post("/conversation/{id}", s.conversationPost)
	})

	return r
}
