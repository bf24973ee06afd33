// Command play runs a merge-blocks game in the terminal.
//
// The game runs in process against the same service the server uses, so
// finished games land in the selected records store and the best score is
// shared with the server when both point at the same database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/mergeblocks/game/config"
	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
	"github.com/wricardo/mcp-training/mergeblocks/game/records"
	"github.com/wricardo/mcp-training/mergeblocks/game/service"
	"github.com/wricardo/mcp-training/mergeblocks/game/session"
)

func main() {
	cmd := &cli.Command{
		Name:  "play",
		Usage: "Play merge blocks in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing game presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Preset to play (defaults to normal)",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "Seed for a reproducible game",
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   "memory",
				Usage:   "Records store: memory, sqlite or redis",
				Sources: cli.EnvVars("RECORDS_STORE"),
			},
			&cli.StringFlag{
				Name:    "sqlite-path",
				Value:   "data/records.db",
				Sources: cli.EnvVars("SQLITE_PATH"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Value:   "localhost:6379",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write debug logs to this file; the terminal is owned by the game",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "play: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

func run(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	configs, err := config.NewManager(cmd.String("config-dir"), config.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to load presets: %w", err)
	}

	store, err := records.Open(ctx, records.Options{
		Kind:       cmd.String("store"),
		SQLitePath: cmd.String("sqlite-path"),
		RedisAddr:  cmd.String("redis-addr"),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open records store: %w", err)
	}
	defer store.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	game := newGame(screen, configs, store, logger)

	var seed *int64
	if cmd.IsSet("seed") {
		s := cmd.Int64("seed")
		seed = &s
	}
	if err := game.Start(ctx, cmd.String("config"), seed); err != nil {
		return err
	}
	return game.Run(ctx)
}

// newGame wires an in-memory session manager and the game service around
// screen. The game is the audio sink of every engine the service creates.
func newGame(screen tcell.Screen, configs service.ConfigManager, store records.Store, logger *zap.Logger) *Game {
	game := &Game{screen: screen, logger: logger}
	game.svc = service.NewGameService(
		session.NewManager(session.WithLogger(logger)),
		configs,
		store,
		service.WithLogger(logger),
		service.WithEngineOptions(engine.WithAudio(game)),
	)
	return game
}
