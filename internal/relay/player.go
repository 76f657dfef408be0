package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type UpdateStatusParams struct {
	Patch PlaybackStatePatch
}

type UpdateStatusResponse struct {
	State PlaybackState
	Conns []*websocket.Conn
}

// UpdateStatus merges a player-reported status into the canonical state and
// returns the playlist channel's subscribers. Reported values are trusted
// verbatim, no transition validation.
func (s *service) UpdateStatus(ctx context.Context, params *UpdateStatusParams) (UpdateStatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state.ApplyPlayerPatch(&params.Patch)

	var payloadPlaylistId string
	if params.Patch.PlaylistId != nil {
		payloadPlaylistId = *params.Patch.PlaylistId
	}
	playlistId := s.broadcastPlaylistId(payloadPlaylistId)

	return UpdateStatusResponse{
		State: state,
		Conns: s.connRepo.GetChannelSubscribers(PlaylistChannel(playlistId)),
	}, nil
}

type UpdateItemStatusParams struct {
	MediaId    string
	PlaylistId string
	Status     ItemStatus
}

type UpdateItemStatusResponse struct {
	PlaylistId string
	Statuses   map[string]ItemStatus
	Conns      []*websocket.Conn
}

// UpdateItemStatus records per-item readiness reported by the player and
// returns the playlist's full status map for rebroadcast.
func (s *service) UpdateItemStatus(ctx context.Context, params *UpdateItemStatusParams) (UpdateItemStatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlistId := s.broadcastPlaylistId(params.PlaylistId)
	statuses := s.state.SetItemStatus(playlistId, params.MediaId, params.Status)

	return UpdateItemStatusResponse{
		PlaylistId: playlistId,
		Statuses:   statuses,
		Conns:      s.connRepo.GetChannelSubscribers(PlaylistChannel(playlistId)),
	}, nil
}

type ReportTimeParams struct {
	ItemId      string
	CurrentTime float64
	PlaylistId  string
}

type ReportTimeResponse struct {
	Conns []*websocket.Conn
}

// ReportTime folds a progress report into the stored state when it concerns
// the item currently on record, and hands back the playlist channel's
// subscribers so the caller can relay the raw report.
func (s *service) ReportTime(ctx context.Context, params *ReportTimeParams) (ReportTimeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.ItemId != "" && params.ItemId == s.state.Player().ItemId {
		s.state.ApplyPlayerPatch(&PlaybackStatePatch{CurrentTime: &params.CurrentTime})
	}

	playlistId := params.PlaylistId
	if playlistId == "" {
		playlistId = DefaultPlaylistId
	}

	return ReportTimeResponse{
		Conns: s.connRepo.GetChannelSubscribers(PlaylistChannel(playlistId)),
	}, nil
}

type ReportEventParams struct {
	PlaylistId string
}

type ReportEventResponse struct {
	Conns []*websocket.Conn
}

// ReportEvent relays a generic player event (ended, etc) to the playlist
// channel without touching state.
func (s *service) ReportEvent(ctx context.Context, params *ReportEventParams) (ReportEventResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlistId := params.PlaylistId
	if playlistId == "" {
		playlistId = DefaultPlaylistId
	}

	return ReportEventResponse{
		Conns: s.connRepo.GetChannelSubscribers(PlaylistChannel(playlistId)),
	}, nil
}

type ReportErrorDetailParams struct {
	ItemId     string
	ItemName   string
	Error      string
	PlaylistId string
}

type ReportErrorDetailResponse struct {
	Notification Notification
	Conns        []*websocket.Conn
}

// ReportErrorDetail turns a detailed playback failure into a notification for
// the playlist channel.
func (s *service) ReportErrorDetail(ctx context.Context, params *ReportErrorDetailParams) (ReportErrorDetailResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlistId := s.broadcastPlaylistId(params.PlaylistId)

	return ReportErrorDetailResponse{
		Notification: Notification{
			Id:        uuid.NewString(),
			Type:      "error",
			Title:     "Playback Error",
			Message:   fmt.Sprintf("Failed to play %q: %s", params.ItemName, params.Error),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Conns: s.connRepo.GetChannelSubscribers(PlaylistChannel(playlistId)),
	}, nil
}

type ActivatePlaylistParams struct {
	PlaylistId string
}

type ActivatePlaylistResponse struct {
	State PlaybackState
	Conns []*websocket.Conn
}

// ActivatePlaylist points the canonical state at a different playlist and
// notifies every playlist subscriber. Durable config is the caller's concern.
func (s *service) ActivatePlaylist(ctx context.Context, params *ActivatePlaylistParams) (ActivatePlaylistResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state.ApplyPlayerPatch(&PlaybackStatePatch{PlaylistId: &params.PlaylistId})

	return ActivatePlaylistResponse{
		State: state,
		Conns: s.connRepo.GetPrefixSubscribers(PlaylistChannelPrefix),
	}, nil
}

type PlaylistUpdatedResponse struct {
	Conns []*websocket.Conn
}

// PlaylistUpdated notifies a playlist's channel that its stored definition
// changed on disk.
func (s *service) PlaylistUpdated(ctx context.Context, playlistId string) (PlaylistUpdatedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return PlaylistUpdatedResponse{
		Conns: s.connRepo.GetChannelSubscribers(PlaylistChannel(playlistId)),
	}, nil
}
