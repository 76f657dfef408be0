package relay

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/recue/server/internal/repository/connection"
)

var ErrInvalidRole = errors.New("invalid role")

type iConnRepo interface {
	Add(*websocket.Conn) (string, error)
	SetRole(*websocket.Conn, connection.Role) error
	GetRole(*websocket.Conn) (connection.Role, error)
	GetID(*websocket.Conn) (string, error)
	Subscribe(conn *websocket.Conn, channel string) error
	Unsubscribe(conn *websocket.Conn, channel string) error
	GetSubscriptions(*websocket.Conn) ([]string, error)
	Remove(*websocket.Conn) (connection.Role, error)
	GetByRole(connection.Role) []*websocket.Conn
	GetChannelSubscribers(channel string) []*websocket.Conn
	GetPrefixSubscribers(prefix string) []*websocket.Conn
}

// service is the relay coordination core: connection registry semantics, the
// canonical state store and the command chokepoint. Every inbound envelope is
// applied under one mutex, so state is never observed partially updated; the
// caller performs all socket writes using the conn sets returned from each
// operation.
//
// The registry deliberately holds any number of player connections: commands
// fan out to all of them and only the most recent registration drives the
// resume check, matching the relay's documented wire behavior.
type service struct {
	connRepo iConnRepo
	state    *StateStore
	logger   *slog.Logger
	mu       sync.Mutex
}

type Config struct {
	// InitialPlaylistId seeds PlaybackState.PlaylistId from durable config.
	// Everything else resets to defaults on process restart.
	InitialPlaylistId string
}

func NewService(connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		connRepo: connRepo,
		state:    NewStateStore(cfg.InitialPlaylistId),
		logger:   logger,
	}
}

// PlayerState returns a snapshot of the canonical playback state.
func (s *service) PlayerState() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Player()
}

// broadcastPlaylistId resolves which playlist channel a player-reported event
// belongs to: explicit payload value, then the stored state, then the default.
func (s *service) broadcastPlaylistId(payloadPlaylistId string) string {
	if payloadPlaylistId != "" {
		return payloadPlaylistId
	}
	if stored := s.state.Player().PlaylistId; stored != "" {
		return stored
	}

	return DefaultPlaylistId
}
