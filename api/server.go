// Package api exposes the HTTP surface: auth, link saves through the
// enrichment pipeline, folder and tag management, and unified search.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/linkstash/linkstash/metrics"
	"github.com/linkstash/linkstash/models"
)

// Store is the persistence boundary the handlers depend on. *db.DB
// implements it.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	ListLinks(ctx context.Context, userID string) ([]*models.Link, error)
	ListLinksByTagIDs(ctx context.Context, userID string, tagIDs []string) ([]*models.Link, error)
	GetLinkByID(ctx context.Context, id string) (*models.Link, error)
	UpdateLink(ctx context.Context, link *models.Link) error
	DeleteLink(ctx context.Context, id string) error
	ReplaceLinkTags(ctx context.Context, linkID string, tagIDs []string) error

	CreateFolder(ctx context.Context, folder *models.Folder) error
	ListFolders(ctx context.Context, userID string) ([]*models.Folder, error)
	GetFolderByID(ctx context.Context, id string) (*models.Folder, error)
	UpdateFolder(ctx context.Context, folder *models.Folder) error
	DeleteFolder(ctx context.Context, id string) error
	ReplaceFolderTags(ctx context.Context, folderID string, tagIDs []string) error

	ListTags(ctx context.Context) ([]models.Tag, error)

	SearchLinks(ctx context.Context, userID, query string, limit int) ([]*models.Link, error)
	SearchFolders(ctx context.Context, userID, query string, limit int) ([]*models.Folder, error)
}

// LinkSaver runs the enrichment pipeline for a save request.
type LinkSaver interface {
	SaveLink(ctx context.Context, userID, url string) (*models.Link, error)
}

// ArchiveReader retrieves archived page HTML by its stored relative path.
// nil disables the archive endpoint.
type ArchiveReader interface {
	ReadHTML(relPath string) ([]byte, error)
}

// Config contains server configuration.
type Config struct {
	Addr        string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSEnabled bool
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		TokenTTL:    24 * time.Hour,
		CORSEnabled: true,
	}
}

// Server is the API server. Collaborators are injected at construction.
type Server struct {
	store     Store
	saver     LinkSaver
	archive   ArchiveReader
	server    *http.Server
	addr      string
	jwtSecret string
	tokenTTL  time.Duration
}

// NewServer creates a Server around the given store and pipeline. archive
// may be nil.
func NewServer(config Config, store Store, saver LinkSaver, archive ArchiveReader) *Server {
	if config.TokenTTL == 0 {
		config.TokenTTL = DefaultConfig().TokenTTL
	}

	s := &Server{
		store:     store,
		saver:     saver,
		archive:   archive,
		addr:      config.Addr,
		jwtSecret: config.JWTSecret,
		tokenTTL:  config.TokenTTL,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	if config.CORSEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/links", s.handleListLinks)
			r.Post("/links", s.handleSaveLink)
			r.Put("/links/{id}", s.handleUpdateLink)
			r.Delete("/links/{id}", s.handleDeleteLink)
			r.Get("/links/{id}/archive", s.handleLinkArchive)

			r.Get("/folders", s.handleListFolders)
			r.Post("/folders", s.handleCreateFolder)
			r.Put("/folders/{id}", s.handleUpdateFolder)
			r.Delete("/folders/{id}", s.handleDeleteFolder)
			r.Get("/folders/{id}/links", s.handleFolderLinks)

			r.Get("/tags", s.handleListTags)
			r.Get("/search", s.handleSearch)
		})
	})

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // saves wait on fetch + AI calls
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the API server.
func (s *Server) Start() error {
	slog.Info("starting API server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// requestLogger logs completed requests, skipping health checks to reduce
// noise.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request completed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}
