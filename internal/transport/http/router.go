package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the websocket gateway and the REST endpoints.
func NewRouter(ws *WSHandler, api *APIHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", api.Tasks)
		r.Post("/tasks/reload", api.ReloadTasks)
		r.Get("/room/{code}/results", api.RoomResults)
		r.Get("/export/{code}/player/{id}.csv", api.PlayerCSV)
		r.Get("/export/{code}/room.csv", api.RoomCSV)
	})
	return r
}
