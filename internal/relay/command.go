package relay

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/recue/server/internal/repository/connection"
)

type RouteCommandParams struct {
	// Payload is the control:command payload delivered to players, either a
	// manager's command:player payload forwarded as-is or a translated
	// ControlCommand wire payload.
	Payload any
}

type RouteCommandResponse struct {
	Payload any
	Conns   []*websocket.Conn
}

// RouteCommand is the single chokepoint for playback commands. Commands are
// not scoped per playlist: every player-role connection receives them,
// whatever its subscriptions.
func (s *service) RouteCommand(ctx context.Context, params *RouteCommandParams) (RouteCommandResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return RouteCommandResponse{
		Payload: params.Payload,
		Conns:   s.connRepo.GetByRole(connection.RolePlayer),
	}, nil
}
