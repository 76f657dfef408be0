package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/recue/server/internal/relay"
	"github.com/recue/server/internal/repository/playlist"
	"github.com/recue/server/pkg/rest"
)

func (c *controller) getState(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.relayService.PlayerState()})
}

func (c *controller) listPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := c.playlistRepo.List(r.Context())
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to list playlists", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": playlists})
}

func (c *controller) getPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistId := chi.URLParam(r, "playlist-id")

	p, err := c.playlistRepo.Get(r.Context(), playlistId)
	if err != nil {
		if errors.Is(err, playlist.ErrNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "playlist not found"})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to get playlist", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": p})
}

type savePlaylistInput struct {
	Name  string          `json:"name" validate:"required,max=128"`
	Items []playlist.Item `json:"items"`
}

func (c *controller) savePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistId := chi.URLParam(r, "playlist-id")

	var input savePlaylistInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	if input.Items == nil {
		input.Items = []playlist.Item{}
	}

	if err := c.playlistRepo.Save(r.Context(), playlist.Playlist{
		Id:    playlistId,
		Name:  input.Name,
		Items: input.Items,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to save playlist", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"message": "playlist saved"})
}

func (c *controller) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistId := chi.URLParam(r, "playlist-id")

	if err := c.playlistRepo.Delete(r.Context(), playlistId); err != nil {
		c.logger.WarnContext(r.Context(), "failed to delete playlist", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"message": "playlist deleted"})
}

// activatePlaylist makes a playlist the active one: durable config first, then
// the canonical state, then a push to every playlist subscriber.
func (c *controller) activatePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistId := chi.URLParam(r, "playlist-id")

	exists, err := c.playlistRepo.Exists(r.Context(), playlistId)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to check playlist", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}
	if !exists {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "playlist not found"})
		return
	}

	if err := c.playlistRepo.SetActiveId(r.Context(), playlistId); err != nil {
		c.logger.WarnContext(r.Context(), "failed to persist active playlist", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	activateResp, err := c.relayService.ActivatePlaylist(r.Context(), &relay.ActivatePlaylistParams{
		PlaylistId: playlistId,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to activate playlist", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	c.broadcast(r.Context(), activateResp.Conns, &Output{
		Type:    "player:state",
		Payload: activateResp.State,
	})

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": activateResp.State})
}
