package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the HTTP surface: account endpoints, the WebSocket
// upgrade and, when frontendDir is set, the static frontend at /.
// CORS is wide open: the relay is meant to be reachable from any origin.
func NewRouter(authHandler *AuthHandler, wsHandler http.Handler, statsHandler http.HandlerFunc, secret []byte, frontendDir string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)
	r.Get("/api/stats", statsHandler)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(secret))
		r.Get("/api/me", authHandler.Me)
	})

	r.Handle("/ws", wsHandler)

	if frontendDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(frontendDir)))
	}

	return r
}
