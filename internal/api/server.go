package api

import (
	"PixelRelay/internal/api/handlers"
	"PixelRelay/internal/config"
	"PixelRelay/internal/relay"
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Server struct {
	router     *chi.Mux
	relay      *relay.Service
	uploads    handlers.UploadLookup
	pages      *handlers.PageRenderer
	cfg        *config.Config
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer builds the router. uploads may be nil when the ledger is disabled.
func NewServer(svc *relay.Service, uploads handlers.UploadLookup, tmpl *template.Template, cfg *config.Config, logger *zap.Logger) *Server {
	s := &Server{
		relay:   svc,
		uploads: uploads,
		pages:   handlers.NewPageRenderer(tmpl, logger),
		cfg:     cfg,
		logger:  logger,
	}

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	maxBytes := s.cfg.MaxUploadBytes()
	resizeHandler := handlers.NewResizeHandler(s.relay, s.pages, maxBytes, s.cfg.Resize.MaxDimension, s.logger)
	restoreHandler := handlers.NewRestoreHandler(s.relay, s.pages, maxBytes, s.logger)
	downloadHandler := handlers.NewDownloadHandler(s.relay, s.logger)
	uploadsHandler := handlers.NewUploadsHandler(s.uploads, s.logger)

	s.router.With(middleware.Timeout(10*time.Second)).Get("/health", s.handleHealth)
	s.router.Get("/", s.pages.Index)

	// Upload and download routes stream large bodies; only the server-level
	// timeouts apply.
	s.router.Post("/resize", resizeHandler.Handle)
	s.router.Post("/restore", restoreHandler.Handle)
	s.router.Get("/download/{filename}", downloadHandler.Handle)

	s.router.With(middleware.Timeout(30*time.Second)).Get("/uploads/{id}", uploadsHandler.GetUpload)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "pixelrelay",
		"ledger":  s.uploads != nil,
	})
}

func (s *Server) Start() error {
	srv := s.cfg.Server
	s.httpServer = &http.Server{
		Addr:              srv.Addr,
		Handler:           s.router,
		ReadTimeout:       time.Duration(srv.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(srv.WriteTimeoutSec) * time.Second,
		IdleTimeout:       time.Duration(srv.IdleTimeoutSec) * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
