// Command simulate plays many seeded merge-blocks games with a scripted
// strategy and prints score statistics.
//
// Games run in process by default. With --url they are played through a
// running server's REST API instead, one session per game. Local games are
// replayed from their seed and move list to check that they are
// deterministic.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/mergeblocks/game/config"
	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
	"github.com/wricardo/mcp-training/mergeblocks/game/records"
)

func main() {
	cmd := &cli.Command{
		Name:  "simulate",
		Usage: "Play seeded merge-blocks games with a scripted strategy",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "games", Aliases: []string{"n"}, Value: 20, Usage: "Number of games"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "Seed of the first game; game i uses seed+i"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Preset to play (defaults to normal)"},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "strategy", Value: "greedy", Usage: "hint or greedy"},
			&cli.IntFlag{Name: "max-moves", Value: 2000, Usage: "Maximum merges per game"},
			&cli.DurationFlag{Name: "think", Value: 500 * time.Millisecond, Usage: "Simulated time between merges"},
			&cli.StringFlag{Name: "url", Usage: "Play against a running server instead of in process"},
			&cli.BoolFlag{Name: "replay", Value: true, Usage: "Replay local games to check determinism"},
			&cli.StringFlag{Name: "store", Value: "memory", Usage: "Records store for finished games", Sources: cli.EnvVars("RECORDS_STORE")},
			&cli.StringFlag{Name: "sqlite-path", Value: "data/records.db", Sources: cli.EnvVars("SQLITE_PATH")},
			&cli.StringFlag{Name: "redis-addr", Value: "localhost:6379", Sources: cli.EnvVars("REDIS_ADDR")},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
}

// Options configures a simulation run
type Options struct {
	Games    int
	Seed     int64
	ConfigID string
	Config   *engine.GameConfig
	MaxMoves int
	Think    time.Duration
	Replay   bool
	Strategy Strategy
	Client   *Client
	Store    records.Store
	Logger   *zap.Logger
}

// GameResult is the outcome of one simulated game
type GameResult struct {
	Seed     int64
	Summary  *engine.GameSummary
	GameOver bool
	Replayed bool
	RecordID string
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := zap.NewNop()
	if cmd.Bool("verbose") {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	strategy, err := NewStrategy(cmd.String("strategy"))
	if err != nil {
		return err
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

	opts := Options{
		Games:    cmd.Int("games"),
		Seed:     cmd.Int64("seed"),
		ConfigID: cmd.String("config"),
		MaxMoves: cmd.Int("max-moves"),
		Think:    cmd.Duration("think"),
		Replay:   cmd.Bool("replay"),
		Strategy: strategy,
		Store:    store,
		Logger:   logger,
	}

	if u := cmd.String("url"); u != "" {
		opts.Client = NewClient(u)
	} else {
		configs, err := config.NewManager(cmd.String("config-dir"), config.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to load presets: %w", err)
		}
		if opts.ConfigID == "" {
			opts.Config = configs.GetDefault()
		} else if opts.Config, err = configs.LoadConfig(opts.ConfigID); err != nil {
			return err
		}
	}

	results, err := Simulate(ctx, opts)
	if err != nil {
		return err
	}
	return PrintReport(ctx, os.Stdout, results, store)
}

// Simulate plays opts.Games games and saves each one in opts.Store
func Simulate(ctx context.Context, opts Options) ([]GameResult, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = records.NewMemoryStore()
	}

	results := make([]GameResult, 0, opts.Games)
	for i := 0; i < opts.Games; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		seed := opts.Seed + int64(i)
		result, err := playGame(ctx, opts, seed)
		if err != nil {
			return results, fmt.Errorf("game %d (seed %d): %w", i+1, seed, err)
		}
		results = append(results, *result)
		opts.Logger.Info("game finished",
			zap.Int64("seed", seed),
			zap.Int("score", result.Summary.Score),
			zap.Int("highest_level", result.Summary.HighestLevel),
			zap.Int("moves", result.Summary.MoveCount))
	}
	return results, nil
}

func playGame(ctx context.Context, opts Options, seed int64) (*GameResult, error) {
	var player Player
	if opts.Client != nil {
		remote, err := NewRemotePlayer(ctx, opts.Client, opts.ConfigID, seed)
		if err != nil {
			return nil, err
		}
		defer remote.Close(ctx)
		player = remote
	} else {
		local, err := NewLocalPlayer(opts.Config, seed, opts.Think, opts.Logger)
		if err != nil {
			return nil, err
		}
		player = local
	}

	for moves := 0; moves < opts.MaxMoves && !player.State().GameOver; moves++ {
		move, ok, err := opts.Strategy.Next(ctx, player)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := player.Merge(ctx, move.Keep, move.Remove); err != nil {
			if errors.Is(err, engine.ErrGameOver) {
				break
			}
			return nil, err
		}
	}

	result := &GameResult{
		Seed:     seed,
		Summary:  player.Summary(),
		GameOver: player.State().GameOver,
	}

	if local, ok := player.(*LocalPlayer); ok && opts.Replay {
		if err := local.Replay(ctx); err != nil {
			return nil, fmt.Errorf("replay diverged: %w", err)
		}
		result.Replayed = true
	}

	record := records.NewGameRecord(fmt.Sprintf("simulate-%d", seed), result.Summary, time.Now())
	if err := opts.Store.SaveRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}
	result.RecordID = record.ID
	return result, nil
}

// PrintReport writes per-game lines followed by the store's statistics and
// leaderboard
func PrintReport(ctx context.Context, w io.Writer, results []GameResult, store records.Store) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEED\tSCORE\tHIGHEST\tMOVES\tEXPLOSIONS\tMAX COMBO\tRESULT")
	replayed := 0
	for _, r := range results {
		status := "move limit"
		if r.GameOver {
			status = "game over"
		}
		if r.Replayed {
			replayed++
		}
		s := r.Summary
		fmt.Fprintf(tw, "%d\t%d\t%d (%d)\t%d\t%d\t%d\t%s\n",
			r.Seed, s.Score, engine.BlockValue(s.HighestLevel), s.HighestLevel,
			s.MoveCount, s.Explosions, s.MaxCombo, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats, err := store.Statistics(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nGames: %d  Average score: %.1f  Best score: %d  Highest block: %d (level %d)\n",
		stats.TotalGames, stats.AverageScore, stats.BestScore, stats.HighestValue, stats.HighestLevel)
	fmt.Fprintf(w, "Merges: %d  Explosions: %d  Best combo: %d\n",
		stats.TotalMerges, stats.TotalExplosions, stats.BestCombo)
	if replayed > 0 {
		fmt.Fprintf(w, "Deterministic replay verified for %d of %d games\n", replayed, len(results))
	}
	return nil
}
