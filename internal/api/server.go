// Package api serves the REST surface of the calorie tracker.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/middleware"
	"github.com/mmynk/calories/internal/service"
)

// Server holds the services behind the REST routes.
type Server struct {
	accounts *service.AccountService
	food     *service.FoodService
	auth     *service.AuthService
	tokens   auth.TokenValidator
	logger   *slog.Logger
}

// NewServer creates a Server.
func NewServer(accounts *service.AccountService, food *service.FoodService, authSvc *service.AuthService, tokens auth.TokenValidator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		accounts: accounts,
		food:     food,
		auth:     authSvc,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register adds the REST routes to mux. Every route except login requires a
// session key.
func (s *Server) Register(mux *http.ServeMux) {
	protected := middleware.RequireAuthHTTP(s.tokens, s.unauthorized)
	handle := func(pattern string, fn handlerFunc) {
		mux.Handle(pattern, protected(s.wrap(fn)))
	}

	mux.Handle("POST /login/{$}", s.wrap(s.login))

	handle("POST /register/{$}", s.createAccount)
	handle("GET /users/{$}", s.listAccounts)
	handle("GET /users/{id}/{$}", s.getAccount)
	handle("PUT /users/{id}/{$}", s.updateAccount(false))
	handle("PATCH /users/{id}/{$}", s.updateAccount(true))
	handle("DELETE /users/{id}/{$}", s.deleteAccount)

	handle("GET /fooditem/{$}", s.listFoodRecords)
	handle("POST /fooditem/{$}", s.createFoodRecord)
	handle("GET /fooditem/today/{$}", s.todaySummary)
	handle("GET /fooditem/{id}/{$}", s.getFoodRecord)
	handle("PUT /fooditem/{id}/{$}", s.updateFoodRecord(false))
	handle("PATCH /fooditem/{id}/{$}", s.updateFoodRecord(true))
	handle("DELETE /fooditem/{id}/{$}", s.deleteFoodRecord)
}

// Handler returns a ServeMux with only the REST routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// handlerFunc is an HTTP handler whose error is rendered by writeError.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) wrap(fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.writeError(w, r, err)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
