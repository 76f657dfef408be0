package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/recue/server/internal/repository/playlist"
)

const (
	sidecarName = "playlist.json"
	configName  = "config.json"
	mediaDir    = "media"
)

// repo is the playlist directory collaborator: one directory per playlist
// holding a playlist.json sidecar and a media subdirectory, plus a config.json
// next to the storage root recording the latest active playlist id.
type repo struct {
	storagePath string
	configPath  string
	logger      *slog.Logger
}

func NewRepo(storagePath string, logger *slog.Logger) (*repo, error) {
	r := &repo{
		storagePath: storagePath,
		configPath:  filepath.Join(filepath.Dir(storagePath), configName),
		logger:      logger,
	}

	if err := r.ensureStorage(); err != nil {
		return nil, fmt.Errorf("failed to ensure storage: %w", err)
	}

	return r, nil
}

// ensureStorage creates the storage tree and a default playlist when no
// playlist directories exist yet.
func (r *repo) ensureStorage() error {
	if err := os.MkdirAll(r.storagePath, 0o755); err != nil {
		return err
	}

	entries, err := os.ReadDir(r.storagePath)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return nil
		}
	}

	r.logger.Info("no playlists found, creating default playlist")

	return r.Save(context.Background(), playlist.Playlist{
		Id:    "default",
		Name:  "Default Playlist",
		Items: []playlist.Item{},
	})
}

type config struct {
	LatestPlaylistId string `json:"latestPlaylistId"`
}

// GetActiveId reads the latest playlist id from durable config, falling back
// to the default on any read error.
func (r *repo) GetActiveId(ctx context.Context) string {
	content, err := os.ReadFile(r.configPath)
	if err != nil {
		return "default"
	}

	var cfg config
	if err := json.Unmarshal(content, &cfg); err != nil || cfg.LatestPlaylistId == "" {
		return "default"
	}

	return cfg.LatestPlaylistId
}

func (r *repo) SetActiveId(ctx context.Context, id string) error {
	content, err := json.MarshalIndent(config{LatestPlaylistId: id}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(r.configPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (r *repo) List(ctx context.Context) ([]playlist.Playlist, error) {
	entries, err := os.ReadDir(r.storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage dir: %w", err)
	}

	playlists := make([]playlist.Playlist, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		p, err := r.Get(ctx, entry.Name())
		if err != nil {
			// Directories without a valid sidecar are skipped, not fatal.
			r.logger.DebugContext(ctx, "skipping invalid playlist directory",
				"id", entry.Name(),
				"error", err,
			)
			continue
		}
		playlists = append(playlists, p)
	}

	return playlists, nil
}

func (r *repo) Get(ctx context.Context, id string) (playlist.Playlist, error) {
	content, err := os.ReadFile(filepath.Join(r.storagePath, id, sidecarName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return playlist.Playlist{}, playlist.ErrNotFound
		}

		return playlist.Playlist{}, fmt.Errorf("failed to read playlist %s: %w", id, err)
	}

	var p playlist.Playlist
	if err := json.Unmarshal(content, &p); err != nil {
		return playlist.Playlist{}, fmt.Errorf("failed to unmarshal playlist %s: %w", id, err)
	}

	return p, nil
}

func (r *repo) Exists(ctx context.Context, id string) (bool, error) {
	_, err := os.Stat(filepath.Join(r.storagePath, id, sidecarName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (r *repo) Save(ctx context.Context, p playlist.Playlist) error {
	playlistDir := filepath.Join(r.storagePath, p.Id)
	if err := os.MkdirAll(filepath.Join(playlistDir, mediaDir), 0o755); err != nil {
		return fmt.Errorf("failed to create playlist dir: %w", err)
	}

	content, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal playlist %s: %w", p.Id, err)
	}

	if err := os.WriteFile(filepath.Join(playlistDir, sidecarName), content, 0o644); err != nil {
		return fmt.Errorf("failed to write playlist %s: %w", p.Id, err)
	}

	return nil
}

func (r *repo) Delete(ctx context.Context, id string) error {
	if err := os.RemoveAll(filepath.Join(r.storagePath, id)); err != nil {
		return fmt.Errorf("failed to delete playlist %s: %w", id, err)
	}

	return nil
}

// Watch reports the ids of playlists whose sidecar changes on disk until ctx
// is done. New playlist directories are picked up as they appear.
func (r *repo) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(r.storagePath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch storage dir: %w", err)
	}

	entries, err := os.ReadDir(r.storagePath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to read storage dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := watcher.Add(filepath.Join(r.storagePath, entry.Name())); err != nil {
				r.logger.WarnContext(ctx, "failed to watch playlist dir", "id", entry.Name(), "error", err)
			}
		}
	}

	updates := make(chan string)
	go func() {
		defer watcher.Close()
		defer close(updates)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := watcher.Add(event.Name); err != nil {
							r.logger.WarnContext(ctx, "failed to watch new playlist dir", "error", err)
						}
						continue
					}
				}

				if filepath.Base(event.Name) != sidecarName {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}

				select {
				case updates <- filepath.Base(filepath.Dir(event.Name)):
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.WarnContext(ctx, "playlist watcher error", "error", err)
			}
		}
	}()

	return updates, nil
}
