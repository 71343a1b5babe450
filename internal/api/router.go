package api

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/avelinof/chatrelay/internal/api/handlers"
	"github.com/avelinof/chatrelay/internal/chat"
	"github.com/avelinof/chatrelay/internal/monitoring"
	"github.com/avelinof/chatrelay/internal/server"
)

// NewRouter creates and configures the Chi router for the status API and the
// WebSocket gateway.
func NewRouter(db *sql.DB, hub *chat.Hub, stats *monitoring.StatUpdater, chatServer *server.Server) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// CORS for browser dashboards
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	statusHandler := handlers.NewStatusHandler(db, hub, stats)
	wsHandler := handlers.NewWebSocketHandler(chatServer)

	r.Get("/healthz", statusHandler.Health)
	r.Get("/ws", wsHandler.Serve)

	r.Route("/api", func(r chi.Router) {
		r.Get("/rooms", statusHandler.Rooms)
		r.Get("/stats", statusHandler.Stats)
	})

	return r
}
