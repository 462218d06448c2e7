// Package web provides the HTTP proxy between the remote-control clients and the Spotify Web API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/justestif/spotify-remote/internal/auth"
	"github.com/justestif/spotify-remote/internal/spotify"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	FrontendURI string
	Flow        *auth.Flow
	Tokens      *auth.TokenStore
	Upstream    spotify.Factory
	Logger      *log.Logger
}

// Server is the HTTP server for the proxy.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	logger   *log.Logger
	origin   string
}

// NewServer creates a new proxy server.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	upstream := cfg.Upstream
	if upstream == nil {
		upstream = spotify.NewFactory()
	}

	handlers := NewHandlers(cfg.Flow, cfg.Tokens, upstream, cfg.FrontendURI, logger.With("component", "handlers"))

	// Create router
	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: handlers,
		logger:   logger,
		origin:   originOf(cfg.FrontendURI),
	}

	// Configure middleware
	s.setupMiddleware()

	// Configure routes
	s.setupRoutes()

	// Create HTTP server
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger.With("component", "http")))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.Get("/healthz", h.Health)

	// Auth routes
	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/login", h.Login)
		r.Get("/callback", h.Callback)
		r.Post("/refresh", h.Refresh)
		r.Get("/logout", h.Logout)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Catalog lookups with the application token
		r.Route("/public", func(r chi.Router) {
			r.Get("/search", h.public(h.search))
			r.Get("/artists/{id}", h.public(h.artist))
			r.Get("/albums/{id}", h.public(h.album))
			r.Get("/new-releases", h.public(h.newReleases))
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireBearer)

			r.Get("/me", h.Me)
			r.Get("/me/top/artists", h.TopArtists)
			r.Get("/me/top/tracks", h.TopTracks)
			r.Get("/me/following", h.Following)
			r.Get("/me/player/recently-played", h.RecentlyPlayed)

			r.Get("/playlists", h.Playlists)
			r.Get("/playlists/{id}/tracks", h.PlaylistTracks)

			r.Get("/player", h.Player)
			r.Put("/player/play", h.Play)
			r.Put("/player/toggle", h.Toggle)
			r.Post("/player/next", h.Next)
			r.Post("/player/previous", h.Previous)
			r.Put("/player/seek", h.Seek)
			r.Put("/player/volume", h.Volume)

			r.Get("/tracks/liked", h.LikedStatus)
			r.Put("/tracks/{id}/like", h.Like)
			r.Delete("/tracks/{id}/like", h.Unlike)

			r.Get("/browse/new-releases", h.NewReleases)
			r.Get("/search", h.Search)
			r.Get("/artists/{id}", h.Artist)
			r.Get("/artists/{id}/top-tracks", h.ArtistTopTracks)
			r.Get("/albums/{id}", h.Album)

			r.Get("/library", h.Library)
			r.Get("/library/liked-songs", h.LikedSongs)
		})
	})
}

// requestLogger logs one line per request through logger.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start).Round(time.Microsecond),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// originOf reduces a frontend URI to the scheme://host form CORS compares against.
func originOf(frontend string) string {
	u, err := url.Parse(frontend)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return frontend
	}
	return u.Scheme + "://" + u.Host
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", "http://"+s.server.Addr, "frontend", s.origin)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals
// or when ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	// Channel to receive shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	case <-ctx.Done():
		s.logger.Info("shutting down server", "reason", ctx.Err())
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
