package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "github.com/dudgeon/chat-frontier-family/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter configures the chi router with all application routes.
func NewRouter(chatHandler *ChatHandler, profileHandler *ProfileHandler, realtimeHandler *RealtimeHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	// Liveness probe for container orchestration.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Plain JSON routes get a request timeout so client connections
		// can't hang indefinitely.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/sessions", chatHandler.ListSessions)
			r.Post("/sessions", chatHandler.CreateSession)
			r.Get("/sessions/{sessionID}", chatHandler.GetSession)
			r.Get("/sessions/{sessionID}/messages", chatHandler.GetMessages)
			r.Put("/sessions/{sessionID}/name", chatHandler.RenameSession)
			r.Delete("/sessions/{sessionID}", chatHandler.DeleteSession)

			r.Get("/profile/{userID}", profileHandler.GetProfile)
			r.Put("/profile/{userID}", profileHandler.UpsertProfile)
		})

		// Streaming routes hold connections open for the length of a
		// generation (or a realtime subscription) and must not time out.
		r.Group(func(r chi.Router) {
			r.Post("/chat", chatHandler.HandleChat)
			r.Get("/realtime", realtimeHandler.Subscribe)
		})
	})

	return r
}
