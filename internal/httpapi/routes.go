package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/set-game-backend/internal/config"
	"github.com/DoyleJ11/set-game-backend/internal/hub"
	"github.com/DoyleJ11/set-game-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, base config.Game) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Post("/games", CreateGame(h, base))
	r.Get("/games/{code}", GetSnapshot(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h))
	return r
}
