package osc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/recue/server/internal/relay"
)

type iDispatcher interface {
	DispatchControlCommand(ctx context.Context, cmd relay.ControlCommand) error
}

// Gateway listens for OSC datagrams from external control hardware/software
// and injects recognized commands into the relay's command flow. A gateway
// that cannot start leaves the rest of the relay untouched.
type Gateway struct {
	port       int
	dispatcher iDispatcher
	logger     *slog.Logger
}

func NewGateway(port int, dispatcher iDispatcher, logger *slog.Logger) *Gateway {
	return &Gateway{
		port:       port,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// listenWithProbe binds the first free UDP port at or above startPort. Only
// an address-in-use failure moves the probe to the next port; any other bind
// error is fatal to the gateway.
func listenWithProbe(startPort int, logger *slog.Logger) (net.PacketConn, int, error) {
	for port := startPort; port <= 65535; port++ {
		conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", port))
		if err == nil {
			if port != startPort {
				logger.Warn("configured osc port in use, using next free port",
					"configured", startPort,
					"port", port,
				)
			}

			return conn, port, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, 0, fmt.Errorf("failed to bind udp port %d: %w", port, err)
		}
	}

	return nil, 0, fmt.Errorf("no free udp port at or above %d", startPort)
}

// Run serves OSC datagrams until ctx is done.
func (g *Gateway) Run(ctx context.Context) error {
	conn, port, err := listenWithProbe(g.port, g.logger)
	if err != nil {
		return fmt.Errorf("failed to start osc gateway: %w", err)
	}

	g.logger.InfoContext(ctx, "osc gateway listening", "port", port)

	server := &goosc.Server{Dispatcher: g}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := server.Serve(conn); err != nil && ctx.Err() == nil {
		return fmt.Errorf("osc serve failed: %w", err)
	}

	return nil
}

// Dispatch implements the go-osc Dispatcher over the fixed address table.
func (g *Gateway) Dispatch(packet goosc.Packet) {
	g.dispatch(context.Background(), packet)
}

func (g *Gateway) dispatch(ctx context.Context, packet goosc.Packet) {
	switch p := packet.(type) {
	case *goosc.Message:
		g.handleMessage(ctx, p)

	case *goosc.Bundle:
		for _, msg := range p.Messages {
			g.handleMessage(ctx, msg)
		}
		for _, bundle := range p.Bundles {
			g.dispatch(ctx, bundle)
		}
	}
}

func (g *Gateway) handleMessage(ctx context.Context, msg *goosc.Message) {
	cmd, ok := Translate(msg)
	if !ok {
		g.logger.DebugContext(ctx, "ignoring unrecognized osc address",
			"address", msg.Address,
			"args", msg.Arguments,
		)
		return
	}

	g.logger.InfoContext(ctx, "osc command received", "command", cmd.Command)

	if err := g.dispatcher.DispatchControlCommand(ctx, cmd); err != nil {
		g.logger.WarnContext(ctx, "failed to dispatch osc command",
			"command", cmd.Command,
			"error", err,
		)
	}
}
