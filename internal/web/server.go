package web

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/tp3s/internal/service"
)

// Server is the HTTP server for run history and metrics
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
	mux        *http.ServeMux
	logger     *zap.Logger
}

// NewServer creates a new HTTP server. metrics may be nil.
func NewServer(addr string, svc *service.SolveService, metrics http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		handlers: NewHandlers(svc, logger),
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.httpServer = &http.Server{Addr: addr, Handler: s.mux}
	s.setupRoutes(metrics)
	return s
}

func (s *Server) setupRoutes(metrics http.Handler) {
	// Trailing slash enables prefix matching for /api/runs/{id}
	s.mux.HandleFunc("/api/runs/", s.corsMiddleware(s.routeRuns))
	if metrics != nil {
		s.mux.Handle("/metrics", metrics)
	}
}

// routeRuns routes requests to the appropriate handler based on the path
func (s *Server) routeRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/runs")
	if path == "" || path == "/" {
		s.handlers.ListRuns(w, r)
		return
	}
	s.handlers.GetRun(w, r)
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return s.mux
}
