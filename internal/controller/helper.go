package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// unmarshalAndValidate decodes a payload into dst and runs struct validation.
// A failure means the single offending message gets dropped; the connection
// stays open.
func (c *controller) unmarshalAndValidate(payload json.RawMessage, dst any) error {
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, dst); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		return fmt.Errorf("validation failed: %v", validationErrors)
	}

	return nil
}

// writeToConn delivers an envelope to a single connection. A dead connection
// is absorbed here; its close handler reconciles registry state.
func (c *controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.WriteJSON(output); err != nil {
		c.logger.DebugContext(ctx, "failed to write to conn", "type", output.Type, "error", err)
	}
}

// broadcast fans an envelope out to the given connections, best-effort, no
// queuing or retry.
func (c *controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(output); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "type", output.Type, "error", err)
		}
	}
}
