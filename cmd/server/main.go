package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/recue/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "RECUE_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "RECUE_PORT",
		flagKey:      "port",
		defaultValue: 3000,
	}
	logLevel = configVar[string]{
		envKey:       "RECUE_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	oscPort = configVar[int]{
		envKey:       "RECUE_OSC_PORT",
		flagKey:      "osc-port",
		defaultValue: 57121,
	}
	storagePath = configVar[string]{
		envKey:       "RECUE_STORAGE_PATH",
		flagKey:      "storage-path",
		defaultValue: "./storage/playlists",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(oscPort.flagKey, oscPort.defaultValue, "OSC control protocol UDP port")
	pflag.String(storagePath.flagKey, storagePath.defaultValue, "Playlist storage directory")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(oscPort.flagKey, oscPort.envKey)
	viper.BindEnv(storagePath.flagKey, storagePath.envKey)

	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(oscPort.flagKey, oscPort.defaultValue)
	viper.SetDefault(storagePath.flagKey, storagePath.defaultValue)

	return &app.AppConfig{
		Host:        viper.GetString(host.flagKey),
		Port:        viper.GetInt(port.flagKey),
		LogLevel:    viper.GetString(logLevel.flagKey),
		OSCPort:     viper.GetInt(oscPort.flagKey),
		StoragePath: viper.GetString(storagePath.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
