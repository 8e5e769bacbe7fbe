package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"tubesnap/internal/ratelimit"
	"tubesnap/pkg/models"
)

var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrServerNotRunning     = errors.New("server is not running")
)

// Extractor is the server's view of the external media-extraction tool.
type Extractor interface {
	Metadata(ctx context.Context, url string) (*models.VideoMetadata, error)
	Download(ctx context.Context, url, formatID string) (string, error)
}

// Server represents the HTTP server
type Server struct {
	config      *models.Config
	extractor   Extractor
	metaLimiter *ratelimit.Limiter
	dlLimiter   *ratelimit.Limiter
	burst       *rate.Limiter
	router      *chi.Mux
	server      *http.Server
	listener    net.Listener
	running     bool
	mu          sync.RWMutex
}

// NewServer creates a new HTTP server. assets, if non-nil, is served as
// the web front end at the root.
func NewServer(config *models.Config, extractor Extractor, assets fs.FS) *Server {
	s := &Server{
		config:      config,
		extractor:   extractor,
		metaLimiter: ratelimit.New(config.MetadataRatePerMin, models.RateWindow),
		dlLimiter:   ratelimit.New(config.DownloadRatePerMin, models.RateWindow),
		burst:       rate.NewLimiter(rate.Limit(50), 100),
		router:      chi.NewRouter(),
	}

	s.setupRoutes(assets)

	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(assets fs.FS) {
	// Middleware
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.burstLimit)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/metadata", s.handleMetadata)
		r.Post("/download", s.handleDownload)
	})

	// Embedded front end
	if assets != nil {
		s.router.Handle("/*", http.FileServer(http.FS(assets)))
	}
}

// burstLimit is a process-wide backstop in front of the per-client
// limiters.
func (s *Server) burstLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.burst.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrServerAlreadyRunning
	}

	addr := s.GetAddr()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener
	// No WriteTimeout: download responses stream for minutes.
	httpServer := &http.Server{
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	s.server = httpServer

	s.running = true

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServerNotRunning
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.running = false
	s.server = nil
	s.listener = nil

	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetAddr returns the server address
func (s *Server) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.config.WebServerHost, s.config.WebServerPort)
}

// GetActualAddr returns the actual listening address (useful when port is 0)
func (s *Server) GetActualAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}

	return s.GetAddr()
}
