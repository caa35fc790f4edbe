// Package server exposes the agent pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orderboard_agent/internal/config"
	"orderboard_agent/internal/logger"
	"orderboard_agent/internal/metrics"
	"orderboard_agent/internal/orchestrator"
	"orderboard_agent/pkg"
)

// Server is the agent's HTTP front end.
type Server struct {
	pipeline   *orchestrator.Pipeline
	backendURL string
	httpServer *http.Server
}

// New creates a server wired to the given pipeline.
func New(cfg config.ServerConfig, pipeline *orchestrator.Pipeline, backendURL string) *Server {
	s := &Server{
		pipeline:   pipeline,
		backendURL: backendURL,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.queryHandler)
	mux.HandleFunc("/memory", s.memoryHandler)
	mux.HandleFunc("/clear-memory", s.clearMemoryHandler)
	mux.HandleFunc("/examples", s.examplesHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/", s.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCORS(s.instrument(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	logger.Info().Str("addr", s.httpServer.Addr).Msg("agent HTTP server starting")
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

	var req pkg.NLRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.pipeline.Process(r.Context(), req)
	if err != nil {
		status, detail := mapPipelineError(err)
		logger.Error().Err(err).Int("status", status).Msg("query failed")
		writeError(w, status, detail)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) memoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	turns := s.pipeline.MemorySnapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"cached_messages": turns,
		"count":           len(turns),
	})
}

func (s *Server) clearMemoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.pipeline.ClearMemory()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Conversation memory cleared successfully",
	})
}

func (s *Server) examplesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"examples": []string{
			"Show me pending orders",
			"Show me the last 5 printed orders",
			"Give me the 7 oldest pending orders",
			"Show the 3 most recent urgent orders from Zazzle",
			"Show me a bar chart of orders by status",
			"Give me a graph of all orders per tag",
		},
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/health" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"message":     "AI Agent is running",
		"backend_url": s.backendURL,
	})
}

// mapPipelineError turns a pipeline failure into a status code and detail
// message. Unknown errors default to 500.
func mapPipelineError(err error) (int, string) {
	var perr *pkg.PipelineError
	if !errors.As(err, &perr) {
		return http.StatusInternalServerError, "Agent processing error: " + err.Error()
	}

	switch perr.Kind {
	case pkg.KindClientError:
		return http.StatusBadRequest, perr.Err.Error()
	case pkg.KindBadGateway:
		return http.StatusBadGateway, perr.Err.Error()
	default:
		return http.StatusInternalServerError, perr.Error()
	}
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

// statusRecorder captures the status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		metrics.RequestCount.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
