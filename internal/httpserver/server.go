package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/auth"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/config"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/handlers"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/i18n"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/shortcode"
)

// Server wraps an http.Server with convenience helpers for startup/shutdown.
type Server struct {
	httpServer *http.Server
}

// New constructs an HTTP server exposing the shortcode surface and the admin
// settings page.
func New(cfg config.Config, shortcodes *shortcode.Registry, options handlers.OptionStore) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(i18n.Middleware)
	router.Use(auth.Middleware([]byte(cfg.SessionSecret)))

	router.Get("/healthz", handlers.Health)

	router.Get("/shortcodes/{tag}", handlers.Shortcode(shortcodes))
	router.Post("/shortcodes/{tag}", handlers.Shortcode(shortcodes))
	router.Post("/render", handlers.RenderContent(shortcodes))

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireCapability(auth.CapManageOptions))
		r.Use(auth.RejectCrossSite)
		settings := handlers.Settings(options, auth.NewFormTokens([]byte(cfg.SessionSecret), 0))
		r.Get("/admin/settings", settings)
		r.Post("/admin/settings", settings)
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{httpServer: srv}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
