package relay_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recue/server/internal/relay"
	"github.com/recue/server/internal/repository/connection"
	"github.com/recue/server/internal/repository/connection/inmemory"
)

func newService() interface {
	Connect(ctx context.Context, conn *websocket.Conn) (string, error)
	Register(context.Context, *relay.RegisterParams) (relay.RegisterResponse, error)
	Subscribe(context.Context, *relay.SubscribeParams) error
	Unsubscribe(context.Context, *relay.SubscribeParams) error
	Disconnect(ctx context.Context, conn *websocket.Conn) (relay.DisconnectResponse, error)
	RouteCommand(context.Context, *relay.RouteCommandParams) (relay.RouteCommandResponse, error)
	UpdateStatus(context.Context, *relay.UpdateStatusParams) (relay.UpdateStatusResponse, error)
	UpdateItemStatus(context.Context, *relay.UpdateItemStatusParams) (relay.UpdateItemStatusResponse, error)
	ReportTime(context.Context, *relay.ReportTimeParams) (relay.ReportTimeResponse, error)
	PlayerState() relay.PlaybackState
} {
	return relay.NewService(inmemory.NewRepo(), &relay.Config{InitialPlaylistId: "default"}, slog.Default())
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestRegisterManagerGetsStatePush(t *testing.T) {
	service := newService()
	ctx := context.Background()

	manager := &websocket.Conn{}
	_, err := service.Connect(ctx, manager)
	require.NoError(t, err)

	resp, err := service.Register(ctx, &relay.RegisterParams{Conn: manager, Role: connection.RoleManager})
	require.NoError(t, err)

	assert.Nil(t, resp.Resume)
	assert.Equal(t, []*websocket.Conn{manager}, resp.StateRecipients, "state must go to the registering manager only")
	assert.Equal(t, "default", resp.State.PlaylistId)
}

func TestRegisterInvalidRole(t *testing.T) {
	service := newService()
	ctx := context.Background()

	conn := &websocket.Conn{}
	_, err := service.Connect(ctx, conn)
	require.NoError(t, err)

	_, err = service.Register(ctx, &relay.RegisterParams{Conn: conn, Role: "spectator"})
	assert.ErrorIs(t, err, relay.ErrInvalidRole)
}

func TestRegisterPlayerMarksConnected(t *testing.T) {
	service := newService()
	ctx := context.Background()

	player := &websocket.Conn{}
	_, err := service.Connect(ctx, player)
	require.NoError(t, err)

	resp, err := service.Register(ctx, &relay.RegisterParams{Conn: player, Role: connection.RolePlayer})
	require.NoError(t, err)

	assert.True(t, resp.State.Connected)
	assert.Nil(t, resp.Resume, "stopped state must not trigger a resume")
}

func TestRegisterPlayerResumesWhilePlaying(t *testing.T) {
	service := newService()
	ctx := context.Background()

	_, err := service.UpdateStatus(ctx, &relay.UpdateStatusParams{Patch: relay.PlaybackStatePatch{
		Status:      strPtr(relay.StatusPlaying),
		ItemId:      strPtr("item-42"),
		CurrentTime: floatPtr(12.5),
	}})
	require.NoError(t, err)

	player := &websocket.Conn{}
	_, err = service.Connect(ctx, player)
	require.NoError(t, err)

	resp, err := service.Register(ctx, &relay.RegisterParams{Conn: player, Role: connection.RolePlayer})
	require.NoError(t, err)

	require.NotNil(t, resp.Resume)
	assert.Equal(t, "resume", resp.Resume.Command)
	assert.Equal(t, "item-42", resp.Resume.MediaId)
	assert.Equal(t, 12.5, resp.Resume.StartTime)
}

func TestRegisterPlayerNoResumeWhilePaused(t *testing.T) {
	service := newService()
	ctx := context.Background()

	_, err := service.UpdateStatus(ctx, &relay.UpdateStatusParams{Patch: relay.PlaybackStatePatch{
		Status: strPtr(relay.StatusPaused),
		ItemId: strPtr("item-42"),
	}})
	require.NoError(t, err)

	player := &websocket.Conn{}
	_, err = service.Connect(ctx, player)
	require.NoError(t, err)

	resp, err := service.Register(ctx, &relay.RegisterParams{Conn: player, Role: connection.RolePlayer})
	require.NoError(t, err)

	assert.Nil(t, resp.Resume)
}

func TestRegisterPlayerAnnouncesToPlaylistSubscribers(t *testing.T) {
	service := newService()
	ctx := context.Background()

	manager := &websocket.Conn{}
	_, err := service.Connect(ctx, manager)
	require.NoError(t, err)
	_, err = service.Register(ctx, &relay.RegisterParams{Conn: manager, Role: connection.RoleManager})
	require.NoError(t, err)
	require.NoError(t, service.Subscribe(ctx, &relay.SubscribeParams{Conn: manager, Channel: "playlist:abc"}))

	bystander := &websocket.Conn{}
	_, err = service.Connect(ctx, bystander)
	require.NoError(t, err)
	_, err = service.Register(ctx, &relay.RegisterParams{Conn: bystander, Role: connection.RoleManager})
	require.NoError(t, err)

	player := &websocket.Conn{}
	_, err = service.Connect(ctx, player)
	require.NoError(t, err)

	resp, err := service.Register(ctx, &relay.RegisterParams{Conn: player, Role: connection.RolePlayer})
	require.NoError(t, err)

	assert.Contains(t, resp.StateRecipients, manager)
	assert.NotContains(t, resp.StateRecipients, bystander, "unsubscribed connections must not be announced to")
}

func TestUpdateStatusBroadcastsToMatchingChannelOnly(t *testing.T) {
	service := newService()
	ctx := context.Background()

	managerAbc := &websocket.Conn{}
	_, err := service.Connect(ctx, managerAbc)
	require.NoError(t, err)
	require.NoError(t, service.Subscribe(ctx, &relay.SubscribeParams{Conn: managerAbc, Channel: "playlist:abc"}))

	managerXyz := &websocket.Conn{}
	_, err = service.Connect(ctx, managerXyz)
	require.NoError(t, err)
	require.NoError(t, service.Subscribe(ctx, &relay.SubscribeParams{Conn: managerXyz, Channel: "playlist:xyz"}))

	resp, err := service.UpdateStatus(ctx, &relay.UpdateStatusParams{Patch: relay.PlaybackStatePatch{
		Status:     strPtr(relay.StatusPlaying),
		PlaylistId: strPtr("abc"),
	}})
	require.NoError(t, err)

	assert.Contains(t, resp.Conns, managerAbc)
	assert.NotContains(t, resp.Conns, managerXyz)
}

func TestUpdateStatusFallsBackToStoredPlaylistId(t *testing.T) {
	service := newService()
	ctx := context.Background()

	manager := &websocket.Conn{}
	_, err := service.Connect(ctx, manager)
	require.NoError(t, err)
	require.NoError(t, service.Subscribe(ctx, &relay.SubscribeParams{Conn: manager, Channel: "playlist:default"}))

	resp, err := service.UpdateStatus(ctx, &relay.UpdateStatusParams{Patch: relay.PlaybackStatePatch{
		Status: strPtr(relay.StatusPlaying),
	}})
	require.NoError(t, err)

	assert.Contains(t, resp.Conns, manager)
}

func TestRouteCommandReachesAllPlayersRegardlessOfSubscriptions(t *testing.T) {
	service := newService()
	ctx := context.Background()

	player1 := &websocket.Conn{}
	_, err := service.Connect(ctx, player1)
	require.NoError(t, err)
	_, err = service.Register(ctx, &relay.RegisterParams{Conn: player1, Role: connection.RolePlayer})
	require.NoError(t, err)

	player2 := &websocket.Conn{}
	_, err = service.Connect(ctx, player2)
	require.NoError(t, err)
	_, err = service.Register(ctx, &relay.RegisterParams{Conn: player2, Role: connection.RolePlayer})
	require.NoError(t, err)
	require.NoError(t, service.Subscribe(ctx, &relay.SubscribeParams{Conn: player2, Channel: "playlist:other"}))

	manager := &websocket.Conn{}
	_, err = service.Connect(ctx, manager)
	require.NoError(t, err)
	_, err = service.Register(ctx, &relay.RegisterParams{Conn: manager, Role: connection.RoleManager})
	require.NoError(t, err)

	resp, err := service.RouteCommand(ctx, &relay.RouteCommandParams{Payload: map[string]any{"command": "play"}})
	require.NoError(t, err)

	assert.Len(t, resp.Conns, 2)
	assert.Contains(t, resp.Conns, player1)
	assert.Contains(t, resp.Conns, player2)
	assert.NotContains(t, resp.Conns, manager)
	assert.Equal(t, map[string]any{"command": "play"}, resp.Payload)
}

func TestDisconnectPlayerMarksDisconnected(t *testing.T) {
	service := newService()
	ctx := context.Background()

	manager := &websocket.Conn{}
	_, err := service.Connect(ctx, manager)
	require.NoError(t, err)
	require.NoError(t, service.Subscribe(ctx, &relay.SubscribeParams{Conn: manager, Channel: "playlist:default"}))

	player := &websocket.Conn{}
	_, err = service.Connect(ctx, player)
	require.NoError(t, err)
	_, err = service.Register(ctx, &relay.RegisterParams{Conn: player, Role: connection.RolePlayer})
	require.NoError(t, err)

	resp, err := service.Disconnect(ctx, player)
	require.NoError(t, err)

	assert.True(t, resp.WasPlayer)
	assert.False(t, resp.State.Connected)
	assert.Contains(t, resp.StateRecipients, manager)
	assert.False(t, service.PlayerState().Connected)
}

func TestDisconnectManagerIsQuiet(t *testing.T) {
	service := newService()
	ctx := context.Background()

	manager := &websocket.Conn{}
	_, err := service.Connect(ctx, manager)
	require.NoError(t, err)
	_, err = service.Register(ctx, &relay.RegisterParams{Conn: manager, Role: connection.RoleManager})
	require.NoError(t, err)

	resp, err := service.Disconnect(ctx, manager)
	require.NoError(t, err)

	assert.False(t, resp.WasPlayer)
	assert.Empty(t, resp.StateRecipients)
}

func TestDisconnectUnknownConn(t *testing.T) {
	service := newService()
	ctx := context.Background()

	_, err := service.Disconnect(ctx, &websocket.Conn{})
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

func TestReportTimeMergesOnlyForCurrentItem(t *testing.T) {
	service := newService()
	ctx := context.Background()

	_, err := service.UpdateStatus(ctx, &relay.UpdateStatusParams{Patch: relay.PlaybackStatePatch{
		Status: strPtr(relay.StatusPlaying),
		ItemId: strPtr("item-1"),
	}})
	require.NoError(t, err)

	_, err = service.ReportTime(ctx, &relay.ReportTimeParams{ItemId: "item-1", CurrentTime: 33})
	require.NoError(t, err)
	assert.Equal(t, float64(33), service.PlayerState().CurrentTime)

	_, err = service.ReportTime(ctx, &relay.ReportTimeParams{ItemId: "item-2", CurrentTime: 99})
	require.NoError(t, err)
	assert.Equal(t, float64(33), service.PlayerState().CurrentTime, "stale item reports must not touch state")
}

func TestUpdateItemStatus(t *testing.T) {
	service := newService()
	ctx := context.Background()

	manager := &websocket.Conn{}
	_, err := service.Connect(ctx, manager)
	require.NoError(t, err)
	require.NoError(t, service.Subscribe(ctx, &relay.SubscribeParams{Conn: manager, Channel: "playlist:abc"}))

	resp, err := service.UpdateItemStatus(ctx, &relay.UpdateItemStatusParams{
		MediaId:    "media-1",
		PlaylistId: "abc",
		Status:     relay.ItemStatusReady,
	})
	require.NoError(t, err)

	assert.Equal(t, "abc", resp.PlaylistId)
	assert.Equal(t, map[string]relay.ItemStatus{"media-1": relay.ItemStatusReady}, resp.Statuses)
	assert.Contains(t, resp.Conns, manager)
}
