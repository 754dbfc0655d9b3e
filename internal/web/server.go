// Package web provides the HTTP server for the Synaptic Sound backend.
package web

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/oauth2"

	"github.com/synaptic-sound/backend/internal/crypto"
	"github.com/synaptic-sound/backend/internal/db"
	"github.com/synaptic-sound/backend/internal/mood"
	"github.com/synaptic-sound/backend/internal/spotify"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// UserStore persists users and their token state.
type UserStore interface {
	GetBySpotifyID(ctx context.Context, spotifyID string) (*db.User, error)
	Upsert(ctx context.Context, user *db.User) error
	UpdateTokens(ctx context.Context, spotifyID, accessToken string, refreshTokenEnc *string, expiresAt time.Time) error
	SetAutoCreate(ctx context.Context, spotifyID string, enabled bool) error
	Delete(ctx context.Context, spotifyID string) error
}

// MoodStore persists and aggregates mood entries.
type MoodStore interface {
	Create(ctx context.Context, entry *db.MoodEntry) error
	ListByUser(ctx context.Context, userID string, since *time.Time) ([]db.MoodEntry, error)
	CountByMood(ctx context.Context, userID string) ([]db.MoodCount, error)
	CountByMoodAndDay(ctx context.Context, userID string) ([]db.DailyMoodCount, error)
}

// PlaylistStore persists playlist records.
type PlaylistStore interface {
	Create(ctx context.Context, playlist *db.Playlist) error
}

// TrackLogStore persists now-playing track logs.
type TrackLogStore interface {
	Create(ctx context.Context, tl *db.TrackLog) error
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]db.TrackLogWithMood, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// Stores bundles the persistence dependencies of the handlers.
type Stores struct {
	Users     UserStore
	Moods     MoodStore
	Playlists PlaylistStore
	TrackLogs TrackLogStore
}

// Provider is the outbound gateway to the music-streaming platform.
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	CurrentUser(ctx context.Context, accessToken string) (*spotify.Profile, error)
	NowPlaying(ctx context.Context, accessToken string) (*spotify.PlayingTrack, error)
	CreatePlaylist(ctx context.Context, accessToken, userID, name, description string, public bool) (*spotify.Playlist, error)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	CookieDomain   string
	CookieSameSite http.SameSite
	AllowedOrigins []string
}

// Deps holds the injected dependencies of the server.
type Deps struct {
	Stores     Stores
	Provider   Provider
	Cipher     *crypto.Cipher
	Sessions   *crypto.SessionTokens
	Classifier mood.Classifier
	Logger     *log.Logger
}

// Server is the HTTP server for the backend API.
type Server struct {
	cfg    ServerConfig
	router chi.Router
	server *http.Server

	stores     Stores
	provider   Provider
	sessions   *crypto.SessionTokens
	tokens     *TokenManager
	classifier mood.Classifier
	log        *log.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Deps) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	router := chi.NewRouter()

	s := &Server{
		cfg:        cfg,
		router:     router,
		stores:     deps.Stores,
		provider:   deps.Provider,
		sessions:   deps.Sessions,
		classifier: deps.Classifier,
		log:        deps.Logger,
		tokens: &TokenManager{
			users:    deps.Stores.Users,
			provider: deps.Provider,
			cipher:   deps.Cipher,
			log:      deps.Logger,
		},
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/.well-known/health", s.handleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/login", s.handleLogin)
		r.Get("/callback", s.handleCallback)
		r.Get("/session", s.handleSession)
		r.Post("/logout", s.handleLogout)
		r.Delete("/account", s.handleDeleteAccount)
	})

	s.router.Route("/mood", func(r chi.Router) {
		r.Post("/emoji", s.handleMoodFromEmoji)
		r.Post("/selfie", s.handleMoodFromSelfie)
		r.Get("/history", s.handleMoodHistory)
		r.Get("/stats", s.handleMoodStats)
		r.Get("/trends", s.handleMoodTrends)
		r.Get("/tracks", s.handleMoodTracks)
		r.Post("/settings", s.handleMoodSettings)
	})

	s.router.Route("/spotify", func(r chi.Router) {
		r.Get("/me", s.handleSpotifyMe)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "Synaptic Sound API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.log.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return err
	}

	s.log.Info("server stopped")
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
