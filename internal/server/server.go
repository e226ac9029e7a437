// Package server exposes the task and category collections over a JSON
// API with token authentication, one account per user.
package server

import (
	"log"
	"net/http"

	"github.com/rs/cors"

	"taskflow/internal/auth"
)

type Server struct {
	store  *Store
	secret []byte
	logger *log.Logger
}

func New(store *Store, secret []byte, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: store, secret: secret, logger: logger}
}

// Handler builds the full route table. Auth endpoints are public; the
// entity endpoints sit behind the token middleware.
func (s *Server) Handler() http.Handler {
	m := auth.NewMiddleware(s.secret)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/api/auth/signup", s.handleSignup)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/session", m.Wrap(s.handleSession))

	mux.HandleFunc("/api/tasks", m.Wrap(s.handleTasks))
	mux.HandleFunc("/api/tasks/", m.Wrap(s.handleTaskByID))
	mux.HandleFunc("/api/categories", m.Wrap(s.handleCategories))
	mux.HandleFunc("/api/categories/", m.Wrap(s.handleCategoryByID))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Printf("api server listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}
