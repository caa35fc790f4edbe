package queryservice

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"orderboard_agent/internal/config"
	"orderboard_agent/internal/logger"
	"orderboard_agent/pkg"
)

// Server is the query service's HTTP front end.
type Server struct {
	service    *Service
	httpServer *http.Server
}

// NewServer creates the query service HTTP server.
func NewServer(cfg config.QuerydConfig, service *Service) *Server {
	s := &Server{service: service}

	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.queryHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/", s.healthHandler)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	logger.Info().Str("addr", s.httpServer.Addr).Msg("query service starting")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload QueryPayload
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.service.Execute(r.Context(), payload)
	if err != nil {
		var perr *pkg.PipelineError
		if errors.As(err, &perr) && perr.Kind == pkg.KindClientError {
			writeError(w, http.StatusBadRequest, "Query validation error: "+perr.Err.Error())
			return
		}
		logger.Error().Err(err).Msg("query execution failed")
		writeError(w, http.StatusInternalServerError, "Query execution failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/health" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"message": "Order Query API is running",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
