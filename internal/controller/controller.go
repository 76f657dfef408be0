package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/recue/server/internal/relay"
	"github.com/recue/server/internal/repository/playlist"
	"github.com/recue/server/pkg/validator"
	"github.com/recue/server/pkg/wsrouter"
)

type iRelayService interface {
	Connect(ctx context.Context, conn *websocket.Conn) (string, error)
	Register(context.Context, *relay.RegisterParams) (relay.RegisterResponse, error)
	Subscribe(context.Context, *relay.SubscribeParams) error
	Unsubscribe(context.Context, *relay.SubscribeParams) error
	Disconnect(ctx context.Context, conn *websocket.Conn) (relay.DisconnectResponse, error)
	RouteCommand(context.Context, *relay.RouteCommandParams) (relay.RouteCommandResponse, error)
	UpdateStatus(context.Context, *relay.UpdateStatusParams) (relay.UpdateStatusResponse, error)
	UpdateItemStatus(context.Context, *relay.UpdateItemStatusParams) (relay.UpdateItemStatusResponse, error)
	ReportTime(context.Context, *relay.ReportTimeParams) (relay.ReportTimeResponse, error)
	ReportEvent(context.Context, *relay.ReportEventParams) (relay.ReportEventResponse, error)
	ReportErrorDetail(context.Context, *relay.ReportErrorDetailParams) (relay.ReportErrorDetailResponse, error)
	ActivatePlaylist(context.Context, *relay.ActivatePlaylistParams) (relay.ActivatePlaylistResponse, error)
	PlaylistUpdated(ctx context.Context, playlistId string) (relay.PlaylistUpdatedResponse, error)
	PlayerState() relay.PlaybackState
}

type iPlaylistRepo interface {
	List(context.Context) ([]playlist.Playlist, error)
	Get(ctx context.Context, id string) (playlist.Playlist, error)
	Save(context.Context, playlist.Playlist) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	SetActiveId(ctx context.Context, id string) error
}

type controller struct {
	relayService iRelayService
	playlistRepo iPlaylistRepo
	upgrader     websocket.Upgrader
	validate     *validator.Validator
	logger       *slog.Logger
	wsmux        *wsrouter.WSRouter

	// writeMu serializes all outbound socket writes: broadcasts are triggered
	// from read loops, the OSC dispatcher, the playlist watcher and REST
	// handlers, and gorilla conns allow one writer at a time.
	writeMu sync.Mutex
}

func NewController(relayService iRelayService, playlistRepo iPlaylistRepo, logger *slog.Logger) *controller {
	c := controller{
		relayService: relayService,
		playlistRepo: playlistRepo,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.wsmux = c.getWSRouter()

	return &c
}
