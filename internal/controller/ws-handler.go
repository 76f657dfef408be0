package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/recue/server/internal/relay"
	"github.com/recue/server/internal/repository/connection"
)

type RegisterInput struct {
	Role string `json:"role" validate:"required,oneof=manager player"`
}

func (c *controller) handleRegister(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input RegisterInput
	if err := c.unmarshalAndValidate(payload, &input); err != nil {
		c.logger.WarnContext(ctx, "invalid register payload", "error", err)
		return err
	}

	registerResp, err := c.relayService.Register(ctx, &relay.RegisterParams{
		Conn: conn,
		Role: connection.Role(input.Role),
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to register", "error", err)
		return fmt.Errorf("failed to register: %w", err)
	}

	c.logger.InfoContext(ctx, "registered connection",
		"conn_id", c.getConnIdFromCtx(ctx),
		"role", input.Role,
	)

	if registerResp.Resume != nil {
		c.writeToConn(ctx, conn, &Output{
			Type:    "control:command",
			Payload: registerResp.Resume,
		})
	}

	c.broadcast(ctx, registerResp.StateRecipients, &Output{
		Type:    "player:state",
		Payload: registerResp.State,
	})

	return nil
}

type SubscribeInput struct {
	Channel string `json:"channel" validate:"required"`
}

func (c *controller) handleSubscribe(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input SubscribeInput
	if err := c.unmarshalAndValidate(payload, &input); err != nil {
		c.logger.WarnContext(ctx, "invalid subscribe payload", "error", err)
		return err
	}

	if err := c.relayService.Subscribe(ctx, &relay.SubscribeParams{
		Conn:    conn,
		Channel: input.Channel,
	}); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	c.logger.DebugContext(ctx, "subscribed", "channel", input.Channel)

	return nil
}

func (c *controller) handleUnsubscribe(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input SubscribeInput
	if err := c.unmarshalAndValidate(payload, &input); err != nil {
		c.logger.WarnContext(ctx, "invalid unsubscribe payload", "error", err)
		return err
	}

	if err := c.relayService.Unsubscribe(ctx, &relay.SubscribeParams{
		Conn:    conn,
		Channel: input.Channel,
	}); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	c.logger.DebugContext(ctx, "unsubscribed", "channel", input.Channel)

	return nil
}

type PlayerCommandInput struct {
	Command string `json:"command" validate:"required"`
}

// handlePlayerCommand forwards a manager-issued playback command through the
// command router. The payload travels to players as-is.
func (c *controller) handlePlayerCommand(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input PlayerCommandInput
	if err := c.unmarshalAndValidate(payload, &input); err != nil {
		c.logger.WarnContext(ctx, "invalid command payload", "error", err)
		return err
	}

	routeResp, err := c.relayService.RouteCommand(ctx, &relay.RouteCommandParams{
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to route command: %w", err)
	}

	c.broadcast(ctx, routeResp.Conns, &Output{
		Type:    "control:command",
		Payload: routeResp.Payload,
	})

	return nil
}

// DispatchControlCommand injects an externally-ingested control command into
// the same command flow as manager-issued ones.
func (c *controller) DispatchControlCommand(ctx context.Context, cmd relay.ControlCommand) error {
	routeResp, err := c.relayService.RouteCommand(ctx, &relay.RouteCommandParams{
		Payload: cmd.WirePayload(),
	})
	if err != nil {
		return fmt.Errorf("failed to route command: %w", err)
	}

	c.broadcast(ctx, routeResp.Conns, &Output{
		Type:    "control:command",
		Payload: routeResp.Payload,
	})

	return nil
}

func (c *controller) handlePlayerStatus(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var patch relay.PlaybackStatePatch
	if err := c.unmarshalAndValidate(payload, &patch); err != nil {
		c.logger.WarnContext(ctx, "invalid status payload", "error", err)
		return err
	}

	updateResp, err := c.relayService.UpdateStatus(ctx, &relay.UpdateStatusParams{Patch: patch})
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	c.broadcast(ctx, updateResp.Conns, &Output{
		Type:    "player:state",
		Payload: updateResp.State,
	})

	return nil
}

type ItemStatusInput struct {
	MediaId    string `json:"mediaId"`
	PlaylistId string `json:"playlistId"`
}

func (c *controller) handlePlayerLoading(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	return c.handleItemStatus(ctx, payload, relay.ItemStatusLoading)
}

func (c *controller) handlePlayerReady(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	return c.handleItemStatus(ctx, payload, relay.ItemStatusReady)
}

func (c *controller) handlePlayerError(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	return c.handleItemStatus(ctx, payload, relay.ItemStatusError)
}

func (c *controller) handleItemStatus(ctx context.Context, payload json.RawMessage, status relay.ItemStatus) error {
	var input ItemStatusInput
	if err := c.unmarshalAndValidate(payload, &input); err != nil {
		c.logger.WarnContext(ctx, "invalid item status payload", "error", err)
		return err
	}
	if input.MediaId == "" {
		return nil
	}

	updateResp, err := c.relayService.UpdateItemStatus(ctx, &relay.UpdateItemStatusParams{
		MediaId:    input.MediaId,
		PlaylistId: input.PlaylistId,
		Status:     status,
	})
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}

	c.broadcast(ctx, updateResp.Conns, &Output{
		Type:    "player:itemStatuses",
		Payload: updateResp.Statuses,
	})

	return nil
}

type ErrorDetailInput struct {
	ItemId     string `json:"itemId"`
	ItemName   string `json:"itemName"`
	Error      string `json:"error"`
	PlaylistId string `json:"playlistId"`
}

func (c *controller) handlePlayerErrorDetail(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input ErrorDetailInput
	if err := c.unmarshalAndValidate(payload, &input); err != nil {
		c.logger.WarnContext(ctx, "invalid error detail payload", "error", err)
		return err
	}
	if input.ItemId == "" {
		return nil
	}

	reportResp, err := c.relayService.ReportErrorDetail(ctx, &relay.ReportErrorDetailParams{
		ItemId:     input.ItemId,
		ItemName:   input.ItemName,
		Error:      input.Error,
		PlaylistId: input.PlaylistId,
	})
	if err != nil {
		return fmt.Errorf("failed to report error detail: %w", err)
	}

	c.broadcast(ctx, reportResp.Conns, &Output{
		Type:    "notification:new",
		Payload: reportResp.Notification,
	})

	return nil
}

type TimeInput struct {
	ItemId      string  `json:"itemId"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
	PlaylistId  string  `json:"playlistId"`
}

// handlePlayerTime relays progress reports verbatim; the stored state only
// picks up currentTime when the report concerns the current item.
func (c *controller) handlePlayerTime(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input TimeInput
	if err := c.unmarshalAndValidate(payload, &input); err != nil {
		c.logger.WarnContext(ctx, "invalid time payload", "error", err)
		return err
	}

	reportResp, err := c.relayService.ReportTime(ctx, &relay.ReportTimeParams{
		ItemId:      input.ItemId,
		CurrentTime: input.CurrentTime,
		PlaylistId:  input.PlaylistId,
	})
	if err != nil {
		return fmt.Errorf("failed to report time: %w", err)
	}

	c.broadcast(ctx, reportResp.Conns, &Output{
		Type:    "player:time",
		Payload: json.RawMessage(payload),
	})

	return nil
}

type EventInput struct {
	PlaylistId string `json:"playlistId"`
}

func (c *controller) handlePlayerEvent(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input EventInput
	if err := c.unmarshalAndValidate(payload, &input); err != nil {
		c.logger.WarnContext(ctx, "invalid event payload", "error", err)
		return err
	}

	reportResp, err := c.relayService.ReportEvent(ctx, &relay.ReportEventParams{
		PlaylistId: input.PlaylistId,
	})
	if err != nil {
		return fmt.Errorf("failed to report event: %w", err)
	}

	c.broadcast(ctx, reportResp.Conns, &Output{
		Type:    "player:event",
		Payload: json.RawMessage(payload),
	})

	return nil
}

// NotifyPlaylistUpdated pushes a playlist:updated notice to the playlist's
// channel after its definition changed on disk.
func (c *controller) NotifyPlaylistUpdated(ctx context.Context, playlistId string) error {
	updatedResp, err := c.relayService.PlaylistUpdated(ctx, playlistId)
	if err != nil {
		return fmt.Errorf("failed to get playlist subscribers: %w", err)
	}

	c.broadcast(ctx, updatedResp.Conns, &Output{
		Type:    "playlist:updated",
		Payload: map[string]any{"playlistId": playlistId},
	})

	return nil
}
