// Package server provides the HTTP REST API for the interview coach.
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

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/fetch"
	"github.com/jonathan/interview-coach/internal/ingest"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/scoring"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/server/ratelimit"
	"github.com/jonathan/interview-coach/internal/session"
)

// Store is the interview and turn persistence surface the handlers depend on.
type Store interface {
	CreateInterview(ctx context.Context, iv *db.Interview) (*db.Interview, error)
	GetInterview(ctx context.Context, id string) (*db.Interview, error)
	ListInterviewsByUser(ctx context.Context, userID string) ([]db.Interview, error)
	UpdateInterview(ctx context.Context, iv *db.Interview) error
	DeleteInterview(ctx context.Context, id string) error
	UpsertTurn(ctx context.Context, input db.TurnInput) (bool, error)
	CountTurns(ctx context.Context, sessionID, userID string) (int, error)
	ListTurns(ctx context.Context, sessionID, userID string) ([]db.Turn, error)
	SessionAggregate(ctx context.Context, sessionID, userID string) (string, error)
}

// QuestionGenerator produces interview questions for a job profile.
type QuestionGenerator interface {
	Generate(ctx context.Context, profile scoring.JobProfile) ([]scoring.QuestionAnswer, error)
}

// PostingIngester parses a job posting URL into an interview draft.
type PostingIngester interface {
	Posting(ctx context.Context, urlStr string) (*ingest.Posting, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	store       Store
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler

	sessions  *session.Resolver
	tracker   *session.Tracker
	scorer    interview.Scorer
	generator QuestionGenerator
	ingester  PostingIngester
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	APIKey      string
	SessionFile string
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	ctx := context.Background()

	// Connect to database
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	if err := database.SeedTemplates(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed interview templates: %w", err)
	}

	s := &Server{
		db:    database,
		store: database,
	}

	// Initialize rate limiter
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	// Session state lives in a file when configured, otherwise in memory.
	var sessionStore session.Store
	if cfg.SessionFile != "" {
		sessionStore, err = session.NewFileStore(cfg.SessionFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
	} else {
		sessionStore = session.NewMemoryStore()
	}
	s.sessions = session.NewResolver(sessionStore)
	s.tracker = session.NewTracker(sessionStore)

	// LLM-backed scoring and question generation
	llmClient, err := llm.NewClient(ctx, llm.DefaultGeminiConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	s.scorer = scoring.NewScorer(llmClient)
	s.generator = scoring.NewGenerator(llmClient)

	// Job posting ingest with database-backed page caching
	s.ingester = ingest.New(fetch.NewCachedFetcher(database, nil))

	// Initialize authentication services
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	s.userService = NewUserService(database, passwordConfig)

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)

	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.router()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Scoring calls can take a while
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// router builds the request mux. Interview and session routes require a valid
// JWT; registration, login, and health do not.
func (s *Server) router() http.Handler {
	mux := http.NewServeMux()
	authed := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())

	mux.HandleFunc("GET /health", s.handleHealth)

	// Authentication endpoints
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("PUT /auth/password", authed(http.HandlerFunc(s.handleUpdatePassword)))
	mux.Handle("GET /users/me", authed(http.HandlerFunc(s.handleGetMe)))

	// Interview endpoints
	mux.Handle("GET /interviews", authed(http.HandlerFunc(s.handleListInterviews)))
	mux.Handle("POST /interviews", authed(http.HandlerFunc(s.handleCreateInterview)))
	mux.Handle("POST /interviews/from-url", authed(http.HandlerFunc(s.handleCreateInterviewFromURL)))
	mux.Handle("GET /interviews/{id}", authed(http.HandlerFunc(s.handleGetInterview)))
	mux.Handle("PUT /interviews/{id}", authed(http.HandlerFunc(s.handleUpdateInterview)))
	mux.Handle("DELETE /interviews/{id}", authed(http.HandlerFunc(s.handleDeleteInterview)))

	// Session endpoints
	mux.Handle("POST /interviews/{id}/session", authed(http.HandlerFunc(s.handleResolveSession)))
	mux.Handle("POST /interviews/{id}/session/reset", authed(http.HandlerFunc(s.handleResetSession)))
	mux.Handle("GET /interviews/{id}/progress", authed(http.HandlerFunc(s.handleGetProgress)))

	// Turn endpoints
	mux.Handle("POST /interviews/{id}/answers", authed(http.HandlerFunc(s.handleSubmitAnswer)))
	mux.Handle("POST /interviews/{id}/skip", authed(http.HandlerFunc(s.handleSkipQuestion)))
	mux.Handle("GET /interviews/{id}/feedback", authed(http.HandlerFunc(s.handleGetFeedback)))

	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
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

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

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
		// Extract client identifier (IP address)
		clientID := s.extractClientID(r)

		// Check rate limit
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		if !allowed {
			// Set rate limit headers
			s.setRateLimitHeaders(w, info)
			// Return 429 Too Many Requests
			s.rateLimitResponse(w, info)
			return
		}

		// Set rate limit headers for successful requests
		s.setRateLimitHeaders(w, info)
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

// handleRegister handles user registration requests.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Register(w, r)
}

// handleLogin handles user login requests.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Login(w, r)
}

// handleUpdatePassword handles password update requests for the
// authenticated user.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.authHandler.UpdatePasswordWithUserID(w, r, userID)
}

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
// In the future, this could use X-Forwarded-For header (only from trusted proxies).
func (s *Server) extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
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

	// Log rate limit hit
	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
