package osc

import (
	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/recue/server/internal/relay"
)

// Translate maps a recognized OSC address onto the internal command schema.
// Unrecognized addresses report ok=false and are the caller's to ignore.
func Translate(msg *goosc.Message) (relay.ControlCommand, bool) {
	switch msg.Address {
	case "/play":
		return relay.ControlCommand{Command: "play"}, true
	case "/pause":
		return relay.ControlCommand{Command: "pause"}, true
	case "/stop":
		return relay.ControlCommand{Command: "stop"}, true
	case "/next":
		return relay.ControlCommand{Command: "next"}, true
	case "/previous":
		return relay.ControlCommand{Command: "previous"}, true
	case "/volume":
		if len(msg.Arguments) == 0 {
			return relay.ControlCommand{}, false
		}
		// No bounds clamping: the value travels as sent.
		return relay.ControlCommand{
			Command: "volume",
			Args:    map[string]any{"volume": msg.Arguments[0]},
		}, true
	case "/mute":
		if len(msg.Arguments) == 0 {
			return relay.ControlCommand{}, false
		}
		return relay.ControlCommand{
			Command: "mute",
			Args:    map[string]any{"muted": truthy(msg.Arguments[0])},
		}, true
	}

	return relay.ControlCommand{}, false
}

func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case int32:
		return v == 1
	case int64:
		return v == 1
	case float32:
		return v == 1
	case float64:
		return v == 1
	}

	return false
}
