package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/recue/server/internal/controller"
	"github.com/recue/server/internal/osc"
	"github.com/recue/server/internal/relay"
	"github.com/recue/server/internal/repository/connection/inmemory"
	playlistfs "github.com/recue/server/internal/repository/playlist/fs"
	"github.com/recue/server/pkg/ctxlogger"
)

type AppConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	LogLevel    string `json:"log_level"`
	OSCPort     int    `json:"osc_port"`
	StoragePath string `json:"storage_path"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.OSCPort < 1 || cfg.OSCPort > 65535 {
		return fmt.Errorf("osc port must be between 1 and 65535")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}),
	}
	logger := slog.New(&h)

	playlistRepo, err := playlistfs.NewRepo(cfg.StoragePath, logger)
	if err != nil {
		return fmt.Errorf("failed to create playlist repo: %w", err)
	}

	connRepo := inmemory.NewRepo()
	relayService := relay.NewService(connRepo, &relay.Config{
		InitialPlaylistId: playlistRepo.GetActiveId(ctx),
	}, logger)
	ctrl := controller.NewController(relayService, playlistRepo, logger)

	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	// The OSC gateway is best-effort: a gateway that cannot start is reported
	// once and external control is simply unavailable.
	gateway := osc.NewGateway(cfg.OSCPort, ctrl, logger)
	go func() {
		if err := gateway.Run(serverCtx); err != nil {
			logger.Error("osc gateway unavailable", "error", err)
		}
	}()

	// Playlist sidecar changes on disk are pushed to the playlist's channel.
	updates, err := playlistRepo.Watch(serverCtx)
	if err != nil {
		logger.Error("playlist watcher unavailable", "error", err)
	} else {
		go func() {
			for playlistId := range updates {
				if err := ctrl.NotifyPlaylistUpdated(serverCtx, playlistId); err != nil {
					logger.Warn("failed to notify playlist update", "error", err)
				}
			}
		}()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: ctrl.GetMux(),
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		select {
		case <-sig:
		case <-serverCtx.Done():
			return
		}

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
