package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
)

func createValidConfig() *engine.GameConfig {
	cfg := engine.DefaultGameConfig()
	cfg.Name = "Test Config"
	cfg.Description = "Test configuration"
	return cfg
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	var data []byte
	var err error
	if ext := filepath.Ext(filename); ext == ".yaml" || ext == ".yml" {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()

		defaultConfig := createValidConfig()
		defaultConfig.Name = "Normal"
		writeConfigFile(t, dir, "normal", defaultConfig)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Normal" {
			t.Errorf("Expected the normal preset as default, got %s", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("missing default config", func(t *testing.T) {
		dir := t.TempDir()

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager should succeed even without config files, got error: %v", err)
		}

		defaultConfig := manager.GetDefault()
		if defaultConfig == nil {
			t.Fatal("Expected default config to be available")
		}
		if defaultConfig.Name != engine.DefaultConfigName || defaultConfig.GridSize != 5 {
			t.Errorf("Expected built-in rules, got %+v", defaultConfig)
		}
	})

	t.Run("custom default name", func(t *testing.T) {
		dir := t.TempDir()
		hard := createValidConfig()
		hard.Name = "Hard"
		writeConfigFile(t, dir, "hard", hard)
		writeConfigFile(t, dir, "normal", createValidConfig())

		manager, err := NewManager(dir, WithDefaultName("hard"), WithLogger(zaptest.NewLogger(t)))
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Hard" {
			t.Errorf("Expected Hard as default, got %s", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, "normal", createValidConfig())

	easyConfig := createValidConfig()
	easyConfig.Name = "Easy"
	easyConfig.ExplodeLevel = 9
	easyConfig.LevelDistribution = engine.LevelDistribution{Level1: 80, Level2: 15, Level3: 5}
	writeConfigFile(t, dir, "easy.yaml", easyConfig)

	hardConfig := createValidConfig()
	hardConfig.Name = "Hard"
	hardConfig.ComboWindow = 2
	writeConfigFile(t, dir, "hard.yml", hardConfig)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load yaml config by name", func(t *testing.T) {
		config, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Easy" {
			t.Errorf("Expected config name 'Easy', got '%s'", config.Name)
		}
		if config.ExplodeLevel != 9 || config.LevelDistribution.Level1 != 80 {
			t.Errorf("Unexpected rules %+v", config)
		}
	})

	t.Run("load yml config", func(t *testing.T) {
		config, err := manager.LoadConfig("hard")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.ComboWindowDuration() != 2*time.Second {
			t.Errorf("Expected 2s combo window, got %v", config.ComboWindowDuration())
		}
	})

	t.Run("load with extension", func(t *testing.T) {
		config, err := manager.LoadConfig("easy.yaml")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Easy" {
			t.Errorf("Expected config name 'Easy', got '%s'", config.Name)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		config1, _ := manager.LoadConfig("easy")
		config2, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if config1 != config2 {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		if err != ErrConfigNotFound {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		invalidData := []byte(`{"name": "Invalid", "grid_size": 9}`)
		if err := os.WriteFile(filepath.Join(dir, "invalid.json"), invalidData, 0644); err != nil {
			t.Fatalf("Failed to write invalid config: %v", err)
		}

		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		malformedData := []byte(`{"name": "Malformed", invalid json}`)
		if err := os.WriteFile(filepath.Join(dir, "malformed.json"), malformedData, 0644); err != nil {
			t.Fatalf("Failed to write malformed config: %v", err)
		}

		_, err := manager.LoadConfig("malformed")
		if err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})

	t.Run("missing fields take defaults", func(t *testing.T) {
		data := []byte("name: Sparse\ngrid_size: 4\n")
		if err := os.WriteFile(filepath.Join(dir, "sparse.yaml"), data, 0644); err != nil {
			t.Fatalf("Failed to write sparse config: %v", err)
		}

		config, err := manager.LoadConfig("sparse")
		if err != nil {
			t.Fatalf("Failed to load sparse config: %v", err)
		}
		if config.GridSize != 4 || config.ExplodeLevel != 10 || config.ComboWindow != 3 {
			t.Errorf("Expected defaults around grid 4, got %+v", config)
		}
	})
}

func TestManager_GetDefault(t *testing.T) {
	dir := t.TempDir()

	defaultConfig := createValidConfig()
	defaultConfig.Name = "Default Config"
	writeConfigFile(t, dir, "default", defaultConfig)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	// no normal preset, so the first valid file is used
	config := manager.GetDefault()
	if config == nil {
		t.Fatal("Expected default config to be non-nil")
	}
	if config.Name != "Default Config" {
		t.Errorf("Expected default config name 'Default Config', got '%s'", config.Name)
	}
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "normal", createValidConfig())
	easy := createValidConfig()
	easy.Name = "Easy"
	writeConfigFile(t, dir, "easy", easy)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SetDefault("easy"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if manager.GetDefault().Name != "Easy" {
		t.Errorf("Expected Easy, got %s", manager.GetDefault().Name)
	}
	if err := manager.SetDefault("missing"); err != ErrConfigNotFound {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}

	// the chosen default survives a refresh
	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache: %v", err)
	}
	if manager.GetDefault().Name != "Easy" {
		t.Errorf("Expected Easy after refresh, got %s", manager.GetDefault().Name)
	}
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()

	configs := []struct {
		filename string
		name     string
	}{
		{"normal.json", "Normal"},
		{"easy.yaml", "Easy"},
		{"medium.yml", "Medium"},
		{"hard.json", "Hard"},
	}

	for _, cfg := range configs {
		config := createValidConfig()
		config.Name = cfg.name
		writeConfigFile(t, dir, cfg.filename, config)
	}

	// a second file for the same name is listed once
	dup := createValidConfig()
	dup.Name = "Hard YAML"
	writeConfigFile(t, dir, "hard.yaml", dup)

	// non-config files are ignored
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("readme"), 0644)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	configList, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(configList) != 4 {
		t.Fatalf("Expected 4 configs, got %d", len(configList))
	}

	found := make(map[string]string)
	for _, info := range configList {
		found[info.ConfigID] = info.Name
		if info.ExplodeLevel != 10 || info.LevelDistribution.Level1 != 60 {
			t.Errorf("Expected rule details for %s, got %+v", info.ConfigID, info)
		}
	}

	for _, cfg := range configs {
		id := cfg.filename[:len(cfg.filename)-len(filepath.Ext(cfg.filename))]
		if found[id] != cfg.name {
			t.Errorf("Config '%s' listed as %q, want %q", id, found[id], cfg.name)
		}
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		config := createValidConfig()
		config.Name = "Saved"
		if err := manager.SaveConfig("saved", config); err != nil {
			t.Fatalf("SaveConfig: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
			t.Errorf("Expected saved.json: %v", err)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		config := createValidConfig()
		config.Name = "Saved YAML"
		config.ExplodeRadius = 2
		if err := manager.SaveConfig("other.yaml", config); err != nil {
			t.Fatalf("SaveConfig: %v", err)
		}

		loaded, err := engine.LoadGameConfig(filepath.Join(dir, "other.yaml"))
		if err != nil {
			t.Fatalf("LoadGameConfig: %v", err)
		}
		if loaded.Name != "Saved YAML" || loaded.ExplodeRadius != 2 {
			t.Errorf("Unexpected round trip %+v", loaded)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		config := createValidConfig()
		config.ExplodeLevel = 1
		if err := manager.SaveConfig("bad", config); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	configs, _ := manager.ListConfigs()
	if len(configs) != 2 {
		t.Errorf("Expected 2 saved configs, got %d", len(configs))
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()

	config := createValidConfig()
	config.Name = "Changeable"
	config.ExplodeLevel = 10
	writeConfigFile(t, dir, "normal", config)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.GetDefault().ExplodeLevel != 10 {
		t.Fatalf("Expected initial explode level 10, got %d", manager.GetDefault().ExplodeLevel)
	}

	config.ExplodeLevel = 12
	writeConfigFile(t, dir, "normal", config)

	done := make(chan error, 1)
	go func() { done <- manager.RefreshCache() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RefreshCache: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RefreshCache did not return")
	}

	if manager.GetDefault().ExplodeLevel != 12 {
		t.Errorf("Expected refreshed explode level 12, got %d", manager.GetDefault().ExplodeLevel)
	}
}

func TestManager_ReloadConfig(t *testing.T) {
	dir := t.TempDir()

	config := createValidConfig()
	config.Name = "Changeable"
	config.ExplodeRadius = 1
	writeConfigFile(t, dir, "normal", config)
	writeConfigFile(t, dir, "changeable", config)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	loaded, _ := manager.LoadConfig("changeable")
	if loaded.ExplodeRadius != 1 {
		t.Errorf("Expected initial radius 1, got %d", loaded.ExplodeRadius)
	}

	config.ExplodeRadius = 2
	writeConfigFile(t, dir, "changeable", config)

	if err := manager.ReloadConfig("changeable"); err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}

	reloaded, _ := manager.LoadConfig("changeable")
	if reloaded.ExplodeRadius != 2 {
		t.Errorf("Expected reloaded radius 2, got %d", reloaded.ExplodeRadius)
	}
}

func TestManager_Watch(t *testing.T) {
	dir := t.TempDir()

	config := createValidConfig()
	config.MilestoneLevel = 8
	writeConfigFile(t, dir, "normal", config)

	manager, err := NewManager(dir, WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	watchDone := make(chan error, 1)
	go func() { watchDone <- manager.Watch(ctx) }()

	// rewrite until the watcher has registered and picked up the change
	config.MilestoneLevel = 9
	deadline := time.Now().Add(5 * time.Second)
	for manager.GetDefault().MilestoneLevel != 9 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("Watch did not refresh the default config")
		}
		writeConfigFile(t, dir, "normal", config)
		time.Sleep(150 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-watchDone:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not stop after cancel")
	}
}

func TestWatcher_FiltersFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)
	writeConfigFile(t, dir, "easy.yaml", createValidConfig())

	select {
	case name := <-w.Events:
		if filepath.Base(name) != "easy.yaml" {
			t.Errorf("Expected easy.yaml event, got %s", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a config file event")
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestManager_ValidateConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "normal", createValidConfig())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*engine.GameConfig)
		wantErr bool
	}{
		{"valid config", func(*engine.GameConfig) {}, false},
		{"missing name", func(c *engine.GameConfig) { c.Name = "" }, true},
		{"grid too small", func(c *engine.GameConfig) { c.GridSize = 2 }, true},
		{"distribution not 100", func(c *engine.GameConfig) { c.LevelDistribution.Level3 = 50 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.mutate(config)
			err := manager.ValidateConfig(config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, "normal", createValidConfig())
	for i := 1; i <= 5; i++ {
		config := createValidConfig()
		config.Name = "Config" + string(rune('0'+i))
		writeConfigFile(t, dir, "config"+string(rune('0'+i)), config)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 60)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			configName := "config" + string(rune('0'+((id%5)+1)))
			if _, err := manager.LoadConfig(configName); err != nil {
				errs <- err
			}
		}(i)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := manager.RefreshCache(); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}

	if manager.Count() < 1 {
		t.Errorf("Expected cached configs, got %d", manager.Count())
	}
}

func TestManager_CachingBehavior(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, "normal", createValidConfig())

	testConfig := createValidConfig()
	testConfig.Name = "Test"
	writeConfigFile(t, dir, "test", testConfig)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	for i := 0; i < 10; i++ {
		config, err := manager.LoadConfig("test")
		if err != nil {
			t.Fatalf("Failed to load config on iteration %d: %v", i, err)
		}
		if config.Name != "Test" {
			t.Errorf("Unexpected config name on iteration %d", i)
		}
	}

	// the default and the test config
	if manager.Count() != 2 {
		t.Errorf("Expected 2 configs in cache, got %d", manager.Count())
	}
}

// Test-only helpers on Manager

func (m *Manager) ReloadConfig(name string) error {
	m.mu.Lock()
	delete(m.configs, configKey(name))
	m.mu.Unlock()

	_, err := m.LoadConfig(name)
	return err
}

func (m *Manager) ValidateConfig(config *engine.GameConfig) error {
	return engine.ValidateGameConfig(config)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}
