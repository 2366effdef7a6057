// Package web serves the mindzap JSON API.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/conorfennell/mindzap/internal/auth"
	"github.com/conorfennell/mindzap/internal/importer"
	"github.com/conorfennell/mindzap/internal/review"
	"github.com/conorfennell/mindzap/internal/storage"
)

// Options configures a Server.
type Options struct {
	DB       *storage.DB
	Review   *review.Service
	Importer *importer.Importer
	Tokens   *auth.TokenIssuer
	Logger   *slog.Logger

	BcryptCost int
	// AuthRate and AuthBurst limit /login and /register per client.
	AuthRate  float64
	AuthBurst int
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db         *storage.DB
	review     *review.Service
	importer   *importer.Importer
	tokens     *auth.TokenIssuer
	logger     *slog.Logger
	bcryptCost int

	router  *http.ServeMux
	limiter *rateLimiter
	handler http.Handler
}

// NewServer creates and configures a new server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AuthRate <= 0 {
		opts.AuthRate = 1
	}
	if opts.AuthBurst <= 0 {
		opts.AuthBurst = 5
	}
	s := &Server{
		db:         opts.DB,
		review:     opts.Review,
		importer:   opts.Importer,
		tokens:     opts.Tokens,
		logger:     opts.Logger,
		bcryptCost: opts.BcryptCost,
		router:     http.NewServeMux(),
		limiter:    newRateLimiter(opts.AuthRate, opts.AuthBurst, 10*time.Minute),
	}
	s.routes()
	s.handler = s.logRequests(s.router)
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /{$}", s.handleWelcome())

	// Accounts
	s.router.Handle("POST /register", s.limit(s.handleRegister()))
	s.router.Handle("POST /login", s.limit(s.handleLogin()))
	s.router.Handle("GET /profile", s.authed(s.handleGetProfile()))
	s.router.Handle("GET /profile/{username}", s.authed(s.handleGetProfileByName()))
	s.router.Handle("POST /profile/update", s.authed(s.handleUpdateProfile()))
	s.router.Handle("POST /update_credentials", s.authed(s.handleUpdateCredentials()))

	// Flashcards and reviews
	s.router.Handle("GET /flashcards", s.authed(s.handleListFlashcards()))
	s.router.Handle("POST /flashcards", s.authed(s.handleCreateFlashcard()))
	s.router.Handle("GET /flashcards/{id}", s.authed(s.handleGetFlashcard()))
	s.router.Handle("PUT /flashcards/{id}", s.authed(s.handleUpdateFlashcard()))
	s.router.Handle("DELETE /flashcards/{id}", s.authed(s.handleDeleteFlashcard()))
	s.router.Handle("POST /flashcards/{id}/review", s.authed(s.handleReviewFlashcard()))
	s.router.Handle("GET /review/due", s.authed(s.handleDueQueue()))
	s.router.Handle("GET /review/stats", s.authed(s.handleReviewStats()))

	// Quizzes
	s.router.Handle("POST /quizzes", s.authed(s.handleCreateQuiz()))
	s.router.Handle("GET /quizzes", s.authed(s.handleListQuizzes()))
	s.router.Handle("GET /quizzes/stats", s.authed(s.handleQuizStats()))
	s.router.Handle("GET /quizzes/{id}", s.authed(s.handleGetQuiz()))
	s.router.Handle("DELETE /quizzes/{id}", s.authed(s.handleDeleteQuiz()))
	s.router.Handle("POST /quizzes/{id}/attempts", s.authed(s.handleQuizAttempt()))

	// Deck sources
	s.router.Handle("GET /sources", s.authed(s.handleListSources()))
	s.router.Handle("POST /sources", s.authed(s.handleImportSource()))
	s.router.Handle("POST /sync", s.authed(s.handleSync()))
}

func (s *Server) handleWelcome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "Welcome to the MindZap Backend API!")
	}
}
