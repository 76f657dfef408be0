package controller

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/recue/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdWSMw())
	mux.Use(c.loggerWSMw())

	// session
	mux.Handle("session:register", c.handleRegister)
	mux.Handle("subscribe", c.handleSubscribe)
	mux.Handle("unsubscribe", c.handleUnsubscribe)

	// manager -> player
	mux.Handle("command:player", c.handlePlayerCommand)

	// player -> managers
	mux.Handle("player:status", c.handlePlayerStatus)
	mux.Handle("player:loading", c.handlePlayerLoading)
	mux.Handle("player:ready", c.handlePlayerReady)
	mux.Handle("player:error", c.handlePlayerError)
	mux.Handle("player:error:detail", c.handlePlayerErrorDetail)
	mux.Handle("player:time", c.handlePlayerTime)
	mux.Handle("player:event", c.handlePlayerEvent)

	mux.HandleFallback(c.handleUnknown)

	return mux
}

func (c *controller) handleUnknown(ctx context.Context, _ *websocket.Conn, _ json.RawMessage) error {
	c.logger.WarnContext(ctx, "unknown message type", "type", wsrouter.GetMessageTypeFromCtx(ctx))
	return nil
}
