// Package http exposes the JSON API consumed by the mobile clients:
// authentication, entries, derived metrics, assistant responses, and
// manual sync triggers.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/estexav/Flowly/internal/assistant"
	"github.com/estexav/Flowly/internal/authn"
	"github.com/estexav/Flowly/internal/cache"
	applog "github.com/estexav/Flowly/internal/log"
	"github.com/estexav/Flowly/internal/services"
)

// insightsTTL bounds staleness of cached dashboard/prediction payloads.
// Writes invalidate eagerly, so this only covers remote-side changes.
const insightsTTL = 5 * time.Minute

type Server struct {
	http.Server

	finance   *services.FinanceService
	auth      *authn.Client
	assistant *assistant.Engine
	logger    *applog.Logger

	rateLimiter *rateLimiter

	// insightsCache holds derived-data payloads keyed "<userId>:<view>".
	insightsCache *cache.LRUCache[any]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}


// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, finance *services.FinanceService, auth *authn.Client, engine *assistant.Engine, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		finance:          finance,
		auth:             auth,
		assistant:        engine,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		rateLimiter:      newRateLimiter(),
		insightsCache:    cache.NewLRUCache[any](200, insightsTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.withMiddleware(s.handleSignUp))
	mux.HandleFunc("POST /api/auth/login", s.withMiddleware(s.handleLogin))

	mux.HandleFunc("POST /api/users/{userId}/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/users/{userId}/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("GET /api/users/{userId}/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/users/{userId}/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/users/{userId}/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/users/{userId}/recurrings", s.withMiddleware(s.handleCreateRecurring))
	mux.HandleFunc("GET /api/users/{userId}/recurrings", s.withMiddleware(s.handleListRecurrings))
	mux.HandleFunc("PUT /api/users/{userId}/recurrings/{id}", s.withMiddleware(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/users/{userId}/recurrings/{id}", s.withMiddleware(s.handleDeleteRecurring))

	mux.HandleFunc("GET /api/users/{userId}/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /api/users/{userId}/prediction", s.withMiddleware(s.handlePrediction))
	mux.HandleFunc("GET /api/users/{userId}/affordability", s.withMiddleware(s.handleAffordability))
	mux.HandleFunc("GET /api/users/{userId}/savings-goal", s.withMiddleware(s.handleSavingsGoal))

	mux.HandleFunc("POST /api/users/{userId}/assistant", s.withMiddleware(s.handleAssistant))
	mux.HandleFunc("POST /api/users/{userId}/sync", s.withMiddleware(s.handleSync))

	return s
}

// withMiddleware adds request tracing, security headers, rate limiting,
// and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.insightsCache.CleanExpired()
			if cleaned > 0 {
				s.logger.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateInsights drops a user's cached derived data after any write.
func (s *Server) invalidateInsights(userID string) {
	s.insightsCache.DeletePrefix(userID + ":")
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
