package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kittenspace/meowchat/backend/internal/handler/persona"
	"github.com/kittenspace/meowchat/backend/internal/handler/ws"
	middlewarePkg "github.com/kittenspace/meowchat/backend/internal/middleware"
	personaModel "github.com/kittenspace/meowchat/backend/internal/model/persona"
	"github.com/kittenspace/meowchat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, wsHandler *ws.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	personaHandler := persona.New(personas)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		})
	})

	wsHandler.RegisterRoutes(r)

	return r
}
