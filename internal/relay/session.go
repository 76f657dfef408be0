package relay

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/recue/server/internal/repository/connection"
)

// Connect adds a freshly accepted transport connection to the registry with
// no role. Role and subscriptions are assigned later by Register/Subscribe.
func (s *service) Connect(ctx context.Context, conn *websocket.Conn) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	connId, err := s.connRepo.Add(conn)
	if err != nil {
		return "", fmt.Errorf("failed to add connection: %w", err)
	}

	return connId, nil
}

type RegisterParams struct {
	Conn *websocket.Conn
	Role connection.Role
}

// ResumeCommand instructs a reconnected player to continue playback from the
// last recorded position.
type ResumeCommand struct {
	Command   string  `json:"command"`
	MediaId   string  `json:"mediaId"`
	StartTime float64 `json:"startTime"`
}

type RegisterResponse struct {
	State PlaybackState
	// Resume is non-nil iff the registering player must be told to continue
	// playback. It is addressed to the registering connection only.
	Resume *ResumeCommand
	// StateRecipients receive a player:state push reflecting the registration.
	StateRecipients []*websocket.Conn
}

// Register assigns a role to a connection. A registering player marks the
// state connected and is resumed iff the stored status is still playing; the
// new state goes to every connection subscribed to any playlist channel. A
// registering manager only gets the current state pushed back to itself.
func (s *service) Register(ctx context.Context, params *RegisterParams) (RegisterResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !params.Role.Valid() {
		return RegisterResponse{}, fmt.Errorf("%w: %q", ErrInvalidRole, params.Role)
	}

	if err := s.connRepo.SetRole(params.Conn, params.Role); err != nil {
		return RegisterResponse{}, fmt.Errorf("failed to set role: %w", err)
	}

	switch params.Role {
	case connection.RolePlayer:
		connected := true
		state := s.state.ApplyPlayerPatch(&PlaybackStatePatch{Connected: &connected})

		resp := RegisterResponse{
			State:           state,
			StateRecipients: s.connRepo.GetPrefixSubscribers(PlaylistChannelPrefix),
		}
		if state.ItemId != "" && state.Status == StatusPlaying {
			s.logger.InfoContext(ctx, "resuming player",
				"itemId", state.ItemId,
				"currentTime", state.CurrentTime,
			)
			resp.Resume = &ResumeCommand{
				Command:   "resume",
				MediaId:   state.ItemId,
				StartTime: state.CurrentTime,
			}
		}

		return resp, nil

	case connection.RoleManager:
		s.state.SetManagerConnected(true)

		return RegisterResponse{
			State:           s.state.Player(),
			StateRecipients: []*websocket.Conn{params.Conn},
		}, nil
	}

	return RegisterResponse{}, fmt.Errorf("%w: %q", ErrInvalidRole, params.Role)
}

type SubscribeParams struct {
	Conn    *websocket.Conn
	Channel string
}

func (s *service) Subscribe(ctx context.Context, params *SubscribeParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connRepo.Subscribe(params.Conn, params.Channel); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	return nil
}

func (s *service) Unsubscribe(ctx context.Context, params *SubscribeParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connRepo.Unsubscribe(params.Conn, params.Channel); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	return nil
}

type DisconnectResponse struct {
	WasPlayer bool
	State     PlaybackState
	// StateRecipients receive a player:state push iff the player went away.
	StateRecipients []*websocket.Conn
}

// Disconnect removes the connection from every index. A departing player
// flips the stored state to disconnected and notifies the current playlist's
// channel; the last departing manager clears the manager-connected flag.
func (s *service) Disconnect(ctx context.Context, conn *websocket.Conn) (DisconnectResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, err := s.connRepo.Remove(conn)
	if err != nil {
		return DisconnectResponse{}, fmt.Errorf("failed to remove connection: %w", err)
	}

	switch role {
	case connection.RolePlayer:
		connected := false
		state := s.state.ApplyPlayerPatch(&PlaybackStatePatch{Connected: &connected})

		playlistId := state.PlaylistId
		if playlistId == "" {
			playlistId = DefaultPlaylistId
		}

		return DisconnectResponse{
			WasPlayer:       true,
			State:           state,
			StateRecipients: s.connRepo.GetChannelSubscribers(PlaylistChannel(playlistId)),
		}, nil

	case connection.RoleManager:
		if len(s.connRepo.GetByRole(connection.RoleManager)) == 0 {
			s.state.SetManagerConnected(false)
		}
	}

	return DisconnectResponse{State: s.state.Player()}, nil
}
