// Package server exposes panel runs over HTTP, one run per request.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/akl7777777/ippure-info/internal/model"
	"github.com/akl7777777/ippure-info/internal/panel"
)

const (
	panelPath  = "/api/v1/panel"
	healthPath = "/api/v1/health"
)

type Runner interface {
	Run(ctx context.Context, argument string, completer panel.Completer) error
}

type Logger interface {
	Info(s string)
	Warn(s string)
}

// Server is the HTTP host.
type Server struct {
	runner  Runner
	authKey string
	limiter *rate.Limiter
	router  chi.Router
	logger  Logger
	timeNow func() time.Time
}

// New creates the HTTP host. authKey empty disables authentication and
// a rateLimit of 0 disables rate limiting.
func New(runner Runner, authKey string, rateLimit int, logger Logger) *Server {
	s := &Server{
		runner:  runner,
		authKey: authKey,
		router:  chi.NewRouter(),
		logger:  logger,
		timeNow: time.Now,
	}
	if rateLimit > 0 {
		perSecond := rate.Limit(float64(rateLimit) / time.Minute.Seconds())
		s.limiter = rate.NewLimiter(perSecond, rateLimit)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get(panelPath, s.handlePanel)
	s.router.Get(healthPath, s.handleHealth)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := s.timeNow()

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Health checks never need the key.
	if s.authKey != "" && r.URL.Path != healthPath && !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		s.logger.Warn(fmt.Sprintf("[http] %s %s 401 unauthorized %s",
			r.Method, r.URL.Path, s.timeNow().Sub(start)))
		return
	}

	s.router.ServeHTTP(w, r)

	s.logger.Info(fmt.Sprintf("[http] %s %s %s", r.Method, r.URL.Path, s.timeNow().Sub(start)))
}

// authorized accepts both "Bearer <key>" and the raw key.
func (s *Server) authorized(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	return token == s.authKey
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	argument := r.URL.Query().Get("argument")
	err := s.runner.Run(r.Context(), argument, &responseCompleter{w: w})
	if err != nil {
		s.logger.Warn("[http] " + err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// responseCompleter answers the request with the result record.
type responseCompleter struct {
	w http.ResponseWriter
}

func (c *responseCompleter) Complete(_ context.Context, result model.Result) error {
	return writeJSON(c.w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, &model.ErrorResponse{
		Error: msg,
		Code:  status,
	})
}
