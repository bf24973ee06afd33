package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultGameConfig returns the standard rules: 5x5 grid, explode at 10,
// radius 1, 3s combo window, 0.5 step, 5 starting blocks, 60/30/10 spawns
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:                DefaultConfigName,
		Description:         "Standard rules",
		GridSize:            defaultGridSize,
		ExplodeLevel:        defaultExplodeLevel,
		ExplodeRadius:       defaultExplodeRadius,
		ExplodeLowLevel:     defaultLowLevel,
		ExplodeLevelDrop:    defaultLevelDrop,
		ComboWindow:         defaultComboWindow,
		ComboMultiplierStep: defaultComboStep,
		StartingBlocks:      defaultStartBlocks,
		LevelDistribution:   LevelDistribution{Level1: 60, Level2: 30, Level3: 10},
		MilestoneLevel:      defaultMilestone,
	}
}

// ApplyDefaults fills zero-valued fields with the standard rules.
// ComboMultiplierStep and StartingBlocks are left alone since zero is a
// meaningful value for both; MilestoneLevel 0 disables milestones.
func (c *GameConfig) ApplyDefaults() {
	if c.GridSize == 0 {
		c.GridSize = defaultGridSize
	}
	if c.ExplodeLevel == 0 {
		c.ExplodeLevel = defaultExplodeLevel
	}
	if c.ExplodeRadius == 0 {
		c.ExplodeRadius = defaultExplodeRadius
	}
	if c.ExplodeLowLevel == 0 {
		c.ExplodeLowLevel = defaultLowLevel
	}
	if c.ExplodeLevelDrop == 0 {
		c.ExplodeLevelDrop = defaultLevelDrop
	}
	if c.ComboWindow == 0 {
		c.ComboWindow = defaultComboWindow
	}
	if c.LevelDistribution == (LevelDistribution{}) {
		c.LevelDistribution = LevelDistribution{Level1: 60, Level2: 30, Level3: 10}
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.GridSize < MinGridSize || config.GridSize > MaxGridSize {
		return fmt.Errorf("config validation: grid_size must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.GridSize)
	}

	if config.ExplodeLevel < MinExplodeLevel || config.ExplodeLevel > MaxExplodeLevel {
		return fmt.Errorf("config validation: explode_level must be between %d and %d, got %d", MinExplodeLevel, MaxExplodeLevel, config.ExplodeLevel)
	}
	if config.ExplodeRadius < 1 || config.ExplodeRadius >= config.GridSize {
		return fmt.Errorf("config validation: explode_radius must be between 1 and %d, got %d", config.GridSize-1, config.ExplodeRadius)
	}
	if config.ExplodeLowLevel < 0 || config.ExplodeLowLevel >= config.ExplodeLevel {
		return fmt.Errorf("config validation: explode_low_level must be between 0 and %d, got %d", config.ExplodeLevel-1, config.ExplodeLowLevel)
	}
	if config.ExplodeLevelDrop < 0 {
		return fmt.Errorf("config validation: explode_level_drop must not be negative, got %d", config.ExplodeLevelDrop)
	}

	if config.ComboWindow <= 0 {
		return fmt.Errorf("config validation: combo_window must be positive, got %v", config.ComboWindow)
	}
	if config.ComboMultiplierStep < 0 || config.ComboMultiplierStep > MaxComboStep {
		return fmt.Errorf("config validation: combo_multiplier_step must be between 0 and %v, got %v", MaxComboStep, config.ComboMultiplierStep)
	}

	cells := config.GridSize * config.GridSize
	if config.StartingBlocks < 0 || config.StartingBlocks > cells {
		return fmt.Errorf("config validation: starting_blocks must be between 0 and %d, got %d", cells, config.StartingBlocks)
	}

	if err := config.LevelDistribution.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if config.MilestoneLevel < 0 {
		return fmt.Errorf("config validation: milestone_level must not be negative, got %d", config.MilestoneLevel)
	}

	return nil
}

// Validate checks the weights are non-negative and sum to 100
func (d LevelDistribution) Validate() error {
	if d.Level1 < 0 || d.Level2 < 0 || d.Level3 < 0 {
		return fmt.Errorf("level_distribution weights must not be negative, got %d/%d/%d", d.Level1, d.Level2, d.Level3)
	}
	if sum := d.Level1 + d.Level2 + d.Level3; sum != DistributionTotal {
		return fmt.Errorf("level_distribution must sum to %d, got %d", DistributionTotal, sum)
	}
	return nil
}

// LoadGameConfig loads a game configuration from a JSON or YAML file.
// Missing rule fields take their defaults before validation.
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseGameConfig(filename, data)
	if err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ParseGameConfig decodes config data using the format implied by the file
// extension and applies defaults
func ParseGameConfig(filename string, data []byte) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	}

	if config.Name == "" {
		config.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	config.ApplyDefaults()
	return &config, nil
}

// ConfigExtensions lists the file extensions tried when resolving a config by name
var ConfigExtensions = []string{".json", ".yaml", ".yml"}

// LoadConfigByName loads a game configuration by name from dir, trying each
// of ConfigExtensions unless the name already carries one
func LoadConfigByName(dir, configName string) (*GameConfig, error) {
	candidates := []string{configName}
	if ext := strings.ToLower(filepath.Ext(configName)); ext == "" {
		candidates = candidates[:0]
		for _, ext := range ConfigExtensions {
			candidates = append(candidates, configName+ext)
		}
	}

	for _, name := range candidates {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			continue
		}
		config, err := LoadGameConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config '%s': %w", name, err)
		}
		return config, nil
	}

	return nil, fmt.Errorf("config file '%s' not found", configName)
}
