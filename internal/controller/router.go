package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c *controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.HandleFunc("/ws", c.session)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", c.getState)
		r.Get("/playlists", c.listPlaylists)
		r.Get("/playlists/{playlist-id}", c.getPlaylist)
		r.Put("/playlists/{playlist-id}", c.savePlaylist)
		r.Delete("/playlists/{playlist-id}", c.deletePlaylist)
		r.Post("/playlists/{playlist-id}/activate", c.activatePlaylist)
	})

	return r
}
