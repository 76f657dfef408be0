package relay

// PlaylistChannelPrefix scopes broadcast channels to a single playlist.
// Channel names are built by whoever owns the playlist identity.
const PlaylistChannelPrefix = "playlist:"

const DefaultPlaylistId = "default"

func PlaylistChannel(playlistId string) string {
	return PlaylistChannelPrefix + playlistId
}

const (
	StatusStopped = "stopped"
	StatusPlaying = "playing"
	StatusPaused  = "paused"
)

// PlaybackState is the canonical record of the active player. The player is
// the source of truth for its own playback: any status string it reports is
// stored verbatim, so consumers need a defensive default case.
type PlaybackState struct {
	Status      string  `json:"status"`
	ItemId      string  `json:"itemId"`
	CurrentTime float64 `json:"currentTime"`
	Volume      float64 `json:"volume"`
	Muted       bool    `json:"muted"`
	PlaylistId  string  `json:"playlistId"`
	Connected   bool    `json:"connected"`
}

// PlaybackStatePatch is a partial, last-write-wins-per-field update. A nil
// field leaves the stored value untouched.
type PlaybackStatePatch struct {
	Status      *string  `json:"status"`
	ItemId      *string  `json:"itemId"`
	CurrentTime *float64 `json:"currentTime"`
	Volume      *float64 `json:"volume"`
	Muted       *bool    `json:"muted"`
	PlaylistId  *string  `json:"playlistId"`
	Connected   *bool    `json:"connected"`
}

type ItemStatus string

const (
	ItemStatusLoading ItemStatus = "loading"
	ItemStatusReady   ItemStatus = "ready"
	ItemStatusError   ItemStatus = "error"
)

// ControlCommand is the common currency between manager-issued commands and
// externally-ingested control-protocol commands.
type ControlCommand struct {
	Command string
	Args    map[string]any
}

// WirePayload flattens the command into the control:command payload shape.
func (c ControlCommand) WirePayload() map[string]any {
	payload := make(map[string]any, len(c.Args)+1)
	payload["command"] = c.Command
	for k, v := range c.Args {
		payload[k] = v
	}

	return payload
}

type Notification struct {
	Id        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
