package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"course-chat/services"
)

// NewRouter wires HTTP routes to core services. The message routes sit
// behind the identity middleware; the websocket attach point does its own
// token handling because anonymous connections are allowed there.
func NewRouter(authH *AuthHandler, messageH *MessageHandler, wsH *WSHandler, auth services.IAuthService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		authH.RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(RequireAuth(auth))
			messageH.RegisterRoutes(protected)
		})

		api.Get("/ws", wsH.Handle)
	})

	return r
}
