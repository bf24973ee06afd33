// Command analyze prints quick, human-readable heuristics about the presets
// in the project's configs directory: board capacity, expected spawn level
// and value, the explosion threshold and roughly how many merges it takes
// to reach it. Presets that fail engine validation are reported and make
// the command exit non-zero.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
)

// Analysis summarizes one preset
type Analysis struct {
	File               string
	Name               string
	GridSize           int
	Capacity           int
	StartingBlocks     int
	StartingFill       decimal.Decimal // percent of the board
	ExpectedSpawnLevel decimal.Decimal
	ExpectedSpawnValue decimal.Decimal
	ExplodeLevel       int
	ExplodeValue       int
	ExplodeRadius      int
	BlastCells         int
	MergesToExplode    decimal.Decimal // merges of average spawns per exploding block
	ComboWindow        float64
	MultiplierAtFive   decimal.Decimal
	MilestoneValue     int
	Warnings           []string
}

// analyzePreset computes the heuristics for a validated config
func analyzePreset(file string, config *engine.GameConfig) Analysis {
	d := config.LevelDistribution
	cells := config.GridSize * config.GridSize

	spawnValue := decimal.NewFromInt(int64(d.Level1*engine.BlockValue(1) + d.Level2*engine.BlockValue(2) + d.Level3*engine.BlockValue(3))).
		Div(decimal.NewFromInt(engine.DistributionTotal))
	explodeValue := engine.BlockValue(config.ExplodeLevel)

	a := Analysis{
		File:               file,
		Name:               config.Name,
		GridSize:           config.GridSize,
		Capacity:           cells,
		StartingBlocks:     config.StartingBlocks,
		StartingFill:       decimal.NewFromInt(int64(config.StartingBlocks * 100)).Div(decimal.NewFromInt(int64(cells))).Round(1),
		ExpectedSpawnLevel: decimal.NewFromFloat(engine.ExpectedSpawnLevel(d)).Round(2),
		ExpectedSpawnValue: spawnValue.Round(2),
		ExplodeLevel:       config.ExplodeLevel,
		ExplodeValue:       explodeValue,
		ExplodeRadius:      config.ExplodeRadius,
		BlastCells:         blastCells(config.ExplodeRadius, config.GridSize),
		ComboWindow:        config.ComboWindow,
		MultiplierAtFive:   decimal.NewFromInt(1).Add(decimal.NewFromFloat(config.ComboMultiplierStep).Mul(decimal.NewFromInt(4))),
	}
	if spawnValue.IsPositive() {
		a.MergesToExplode = decimal.NewFromInt(int64(explodeValue)).Div(spawnValue).Sub(decimal.NewFromInt(1)).Round(0)
	}
	if config.MilestoneLevel > 0 {
		a.MilestoneValue = engine.BlockValue(config.MilestoneLevel)
	}

	if config.ExplodeLevel-1 > cells {
		a.Warnings = append(a.Warnings, fmt.Sprintf("explosion at level %d may be unreachable on %d cells", config.ExplodeLevel, cells))
	}
	if a.StartingFill.GreaterThan(decimal.NewFromInt(50)) {
		a.Warnings = append(a.Warnings, fmt.Sprintf("board starts %s%% full", a.StartingFill))
	}
	if a.BlastCells*2 > cells {
		a.Warnings = append(a.Warnings, fmt.Sprintf("an explosion can clear %d of %d cells", a.BlastCells, cells))
	}
	return a
}

// blastCells is the largest number of cells one explosion can cover
func blastCells(radius, gridSize int) int {
	side := 2*radius + 1
	if side > gridSize {
		side = gridSize
	}
	return side * side
}

// analyzeDir loads every preset in dir. Presets that fail to load are
// returned in failed, keyed by file name.
func analyzeDir(dir string) (analyses []Analysis, failed map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	failed = make(map[string]error)
	for _, e := range entries {
		if e.IsDir() || !isPreset(e.Name()) {
			continue
		}
		config, err := engine.LoadGameConfig(filepath.Join(dir, e.Name()))
		if err != nil {
			failed[e.Name()] = err
			continue
		}
		analyses = append(analyses, analyzePreset(e.Name(), config))
	}
	sort.Slice(analyses, func(i, j int) bool { return analyses[i].File < analyses[j].File })
	return analyses, failed, nil
}

func isPreset(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range engine.ConfigExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", a.File)
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d (%d cells)\n", a.GridSize, a.GridSize, a.Capacity)
	fmt.Fprintf(w, "Starting Blocks: %d (%s%% full)\n", a.StartingBlocks, a.StartingFill)
	fmt.Fprintf(w, "Expected Spawn: level %s, value %s\n", a.ExpectedSpawnLevel, a.ExpectedSpawnValue)
	fmt.Fprintf(w, "Explosion Threshold: level %d (%d), radius %d, up to %d cells\n",
		a.ExplodeLevel, a.ExplodeValue, a.ExplodeRadius, a.BlastCells)
	fmt.Fprintf(w, "Merges per Explosion: ~%s\n", a.MergesToExplode)
	fmt.Fprintf(w, "Combo: %.1fs window, x%s at a five-merge chain\n", a.ComboWindow, a.MultiplierAtFive)
	if a.MilestoneValue > 0 {
		fmt.Fprintf(w, "Milestone: %d\n", a.MilestoneValue)
	}

	if len(a.Warnings) == 0 {
		fmt.Fprintln(w, "✅ No balance warnings")
		return
	}
	for _, warning := range a.Warnings {
		fmt.Fprintf(w, "⚠️  WARNING: %s\n", warning)
	}
}

func run(w io.Writer, dir string) error {
	analyses, failed, err := analyzeDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	for _, a := range analyses {
		printAnalysis(w, a)
	}

	if len(failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "\n=== %s ===\n❌ %v\n", name, failed[name])
	}
	return fmt.Errorf("%d invalid presets", len(failed))
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Print balance heuristics for merge-blocks presets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(os.Stdout, cmd.String("config-dir"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}
