// Package game parses game service flags and launches the service.
package game

import (
	"context"
	"flag"

	entrypoint "github.com/casefiles/interrogation/internal/platform/cmd"
	server "github.com/casefiles/interrogation/internal/services/game/app"
)

// Config holds game command configuration.
type Config struct {
	Port int `env:"INTERROGATION_GAME_PORT" envDefault:"3001"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The game HTTP server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the game REST API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGame, func(context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
