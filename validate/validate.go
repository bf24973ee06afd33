// Command validate checks the game presets in a configs directory
// (../configs unless one is given). For every .json, .yaml and .yml file it
// checks:
//   - the file decodes and has no unknown keys
//   - the rules pass engine validation
//   - the board can make a first merge and can hold the blocks needed to
//     reach the explosion level
//
// It exits non-zero when any preset is invalid.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
)

var strictJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// ValidationResult captures the outcome of validating a single file.
// Errors is set for invalid presets; Info describes valid ones.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// decodeStrict decodes data like engine.ParseGameConfig but rejects keys
// the rules do not know.
func decodeStrict(filename string, data []byte) error {
	var config engine.GameConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&config); err != nil {
			return fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		if err := strictJSON.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return nil
}

// validateConfig loads and validates a single preset file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	if err := decodeStrict(filePath, data); err != nil {
		result.fail("%v", err)
		return result
	}

	config, err := engine.ParseGameConfig(filePath, data)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	playability := validatePlayability(config)
	if !playability.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, playability.Errors...)
		return result
	}
	result.Info = append(result.Info, playability.Info...)

	d := config.LevelDistribution
	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Grid: %dx%d", config.GridSize, config.GridSize),
		fmt.Sprintf("✓ Explosion: level %d (%d), radius %d", config.ExplodeLevel, engine.BlockValue(config.ExplodeLevel), config.ExplodeRadius),
		fmt.Sprintf("✓ Spawns: %d/%d/%d", d.Level1, d.Level2, d.Level3),
		fmt.Sprintf("✓ Combo: %.1fs window, +%.2f per link", config.ComboWindow, config.ComboMultiplierStep),
	)
	return result
}

// validatePlayability checks that a game can start merging and that the
// board is large enough to ever build an exploding block. Building a level L
// block from level 1 spawns holds up to L-1 blocks at once.
func validatePlayability(config *engine.GameConfig) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}
	cells := config.GridSize * config.GridSize

	if config.StartingBlocks < 2 {
		result.fail("starting_blocks is %d: the first merge needs at least 2 blocks", config.StartingBlocks)
	}
	if config.StartingBlocks == cells {
		result.fail("starting_blocks fills the board (%d cells)", cells)
	}

	if needed := config.ExplodeLevel - 1; needed > cells {
		result.fail("explode_level %d needs up to %d blocks on the board, it has %d cells", config.ExplodeLevel, needed, cells)
	}

	if config.MilestoneLevel >= config.ExplodeLevel {
		result.Info = append(result.Info, fmt.Sprintf("! milestone_level %d is never announced before blocks explode at %d", config.MilestoneLevel, config.ExplodeLevel))
	}

	if result.Valid {
		result.Info = append(result.Info, fmt.Sprintf("✓ Playability: %d of %d cells filled at start", config.StartingBlocks, cells))
	}
	return result
}

// presetFiles lists preset files in dir, sorted by name.
func presetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, known := range engine.ConfigExtensions {
			if ext == known {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// run validates every preset in dir, printing a concise report. It reports
// whether all presets are valid.
func run(dir string) (bool, error) {
	files, err := presetFiles(dir)
	if err != nil {
		return false, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no presets found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
	}
	return allValid, nil
}

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "Validate merge-blocks presets",
		ArgsUsage: "[configs-dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := "../configs"
			if cmd.Args().Len() > 0 {
				dir = cmd.Args().First()
			}
			ok, err := run(dir)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("some presets are invalid")
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
