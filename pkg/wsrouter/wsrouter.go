package wsrouter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

type Middleware func(next HandlerFunc) HandlerFunc

// WSRouter dispatches {type, payload} envelopes to handlers by type. The set
// of recognized types is the registered route table; everything else lands in
// the fallback handler.
type WSRouter struct {
	routes      map[string]HandlerFunc
	fallback    HandlerFunc
	middlewares []Middleware
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// HandleFallback registers the handler for unrecognized message types.
func (r *WSRouter) HandleFallback(handler HandlerFunc) {
	r.fallback = handler
}

func (r *WSRouter) wrap(handler HandlerFunc) HandlerFunc {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	return handler
}

// ServeConn reads envelopes from the connection until it closes. A malformed
// envelope drops that single message and keeps reading; a handler error never
// stops the loop.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.WarnContext(ctx, "dropping malformed message", "error", err)
			continue
		}

		handler, ok := r.routes[msg.Type]
		if !ok {
			handler = r.fallback
		}
		if handler == nil {
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		// Errors are the handler's to report; one failed message must not
		// tear down the connection.
		_ = r.wrap(handler)(msgCtx, conn, msg.Payload)
	}
}
