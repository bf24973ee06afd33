// Package config provides configuration management for the merge-blocks game.
//
// The config package handles:
//   - Loading game presets from JSON and YAML files
//   - Configuration validation through the engine
//   - Default configuration management
//   - Configuration discovery and listing
//   - Reloading presets when files change on disk
//
// Configuration Format:
//
// Presets live in the configs directory as .json, .yaml or .yml files. The
// file name without extension is the config ID used to create sessions.
// Each preset defines:
//   - Board size
//   - Explosion level, radius and the low-level drop rule
//   - Combo window and multiplier step
//   - Starting block count and the level 1/2/3 spawn weights
//
// Fields left out of a preset take the standard rules.
//
// Available Configurations:
//   - normal: 60/30/10 spawns, explosions at level 10
//   - easy: 80/15/5 spawns, explosions at level 9
//   - hard: 40/35/25 spawns, 2 second combo window
//
// Usage:
//
//	manager, err := config.NewManager("configs", config.WithLogger(logger))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("easy")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
//	// keep the cache in sync with the directory
//	go manager.Watch(ctx)
package config
