// Package server provides the HTTP REST API for the sourcing agent.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/demandos/sourcing-agent/internal/db"
	"github.com/demandos/sourcing-agent/internal/server/ratelimit"
	"github.com/demandos/sourcing-agent/internal/workflow"
)

// Database is the persistence surface the API reads and updates. Satisfied by
// *db.DB; a nil Database means no store is configured and the persisted-data
// endpoints report 503.
type Database interface {
	GetTask(ctx context.Context, taskID uuid.UUID) (*db.TaskRecord, error)
	ListTaskSteps(ctx context.Context, taskID uuid.UUID) ([]db.TaskStep, error)
	ListSourcingRequests(ctx context.Context, status *string) ([]db.SourcingRequestRecord, error)
	GetSourcingRequest(ctx context.Context, id uuid.UUID) (*db.SourcingRequestRecord, error)
	UpdateSourcingRequestStatus(ctx context.Context, id uuid.UUID, status string) error
	Close()
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	engine      *workflow.Engine
	searcher    *workflow.Searcher
	parser      workflow.QueryParser
	db          Database
	rateLimiter *ratelimit.Limiter
}

// Config holds server configuration
type Config struct {
	Port int
}

// New creates a new server instance. database may be nil; the persisted-data
// endpoints then report the store as unavailable.
func New(cfg Config, engine *workflow.Engine, searcher *workflow.Searcher, parser workflow.QueryParser, database Database) *Server {
	s := &Server{
		engine:   engine,
		searcher: searcher,
		parser:   parser,
		db:       database,
	}
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Agent task lifecycle
	mux.HandleFunc("POST /agent/start", s.handleStart)
	mux.HandleFunc("GET /agent/status/{task_id}", s.handleStatus)
	mux.HandleFunc("POST /agent/continue", s.handleContinue)
	mux.HandleFunc("POST /agent/cancel/{task_id}", s.handleCancel)
	mux.HandleFunc("GET /agent/stream/{task_id}", s.handleStream)
	mux.HandleFunc("GET /agents", s.handleListAgents)

	// Persisted task history
	mux.HandleFunc("GET /agent/tasks/{task_id}", s.handleGetTaskRecord)
	mux.HandleFunc("GET /agent/tasks/{task_id}/steps", s.handleListTaskSteps)

	// Direct catalog search
	mux.HandleFunc("POST /search", s.handleSearch)

	// Manual sourcing tickets
	mux.HandleFunc("GET /sourcing-requests", s.handleListSourcingRequests)
	mux.HandleFunc("GET /sourcing-requests/{id}", s.handleGetSourcingRequest)
	mux.HandleFunc("PATCH /sourcing-requests/{id}", s.handleUpdateSourcingRequest)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // streaming connections stay open across steps
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.db != nil {
		s.db.Close()
	}
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier (IP address) from the request.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
