package relay

// StateStore holds the process-wide playback state and per-item readiness
// statuses. Pure data plus merge operations, no I/O and no locking: the store
// has a single writer, the relay service that owns it.
type StateStore struct {
	player           PlaybackState
	itemStatuses     map[string]map[string]ItemStatus
	managerConnected bool
}

func NewStateStore(playlistId string) *StateStore {
	if playlistId == "" {
		playlistId = DefaultPlaylistId
	}

	return &StateStore{
		player: PlaybackState{
			Status:     StatusStopped,
			Volume:     1,
			PlaylistId: playlistId,
		},
		itemStatuses: make(map[string]map[string]ItemStatus),
	}
}

func (s *StateStore) Player() PlaybackState {
	return s.player
}

// ApplyPlayerPatch merges the non-nil fields of the patch into the stored
// state and returns the result. Untouched fields are never lost.
func (s *StateStore) ApplyPlayerPatch(patch *PlaybackStatePatch) PlaybackState {
	if patch.Status != nil {
		s.player.Status = *patch.Status
	}
	if patch.ItemId != nil {
		s.player.ItemId = *patch.ItemId
	}
	if patch.CurrentTime != nil {
		s.player.CurrentTime = *patch.CurrentTime
	}
	if patch.Volume != nil {
		s.player.Volume = *patch.Volume
	}
	if patch.Muted != nil {
		s.player.Muted = *patch.Muted
	}
	if patch.PlaylistId != nil {
		s.player.PlaylistId = *patch.PlaylistId
	}
	if patch.Connected != nil {
		s.player.Connected = *patch.Connected
	}

	return s.player
}

// SetItemStatus records the readiness of a single media item and returns a
// copy of the playlist's full status map.
func (s *StateStore) SetItemStatus(playlistId, mediaId string, status ItemStatus) map[string]ItemStatus {
	statuses, ok := s.itemStatuses[playlistId]
	if !ok {
		statuses = make(map[string]ItemStatus)
		s.itemStatuses[playlistId] = statuses
	}
	statuses[mediaId] = status

	return copyStatuses(statuses)
}

func (s *StateStore) ItemStatuses(playlistId string) map[string]ItemStatus {
	return copyStatuses(s.itemStatuses[playlistId])
}

func (s *StateStore) SetManagerConnected(connected bool) {
	s.managerConnected = connected
}

func (s *StateStore) ManagerConnected() bool {
	return s.managerConnected
}

func copyStatuses(statuses map[string]ItemStatus) map[string]ItemStatus {
	out := make(map[string]ItemStatus, len(statuses))
	for mediaId, status := range statuses {
		out[mediaId] = status
	}

	return out
}
