package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/recue/server/internal/repository/connection"
	"github.com/recue/server/pkg/ctxlogger"
)

// session accepts a transport connection and serves its envelope loop. Role
// and subscriptions are assigned only after the client sends an explicit
// registration message.
func (c *controller) session(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	connId, err := c.relayService.Connect(r.Context(), conn)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to connect", "error", err)
		return
	}

	ctx := context.WithValue(r.Context(), connIdCtxKey, connId)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("conn_id", connId))
	c.logger.InfoContext(ctx, "new websocket connection")

	defer c.disconnect(ctx, conn)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(ctx, "connection closed", "error", err)
	}
}

// disconnect reconciles registry and state after a transport close or error.
// Transport faults are never fatal.
func (c *controller) disconnect(ctx context.Context, conn *websocket.Conn) {
	disconnectResp, err := c.relayService.Disconnect(ctx, conn)
	if err != nil {
		if !errors.Is(err, connection.ErrNotFound) {
			c.logger.WarnContext(ctx, "failed to disconnect", "error", err)
		}
		return
	}

	if disconnectResp.WasPlayer {
		c.logger.InfoContext(ctx, "player disconnected")
		c.broadcast(ctx, disconnectResp.StateRecipients, &Output{
			Type:    "player:state",
			Payload: disconnectResp.State,
		})
	}
}
