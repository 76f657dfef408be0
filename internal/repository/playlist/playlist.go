package playlist

import "errors"

var ErrNotFound = errors.New("playlist not found")

type Item struct {
	Id       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Type     string  `json:"type,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Playlist mirrors the playlist.json sidecar stored next to each playlist's
// media directory.
type Playlist struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}
