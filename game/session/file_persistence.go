package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
	"github.com/wricardo/mcp-training/mergeblocks/game/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	snapshotVersion = 1
	snapshotExt     = ".json"
)

// FilePersistence stores one JSON snapshot per session in a directory
type FilePersistence struct {
	sessionsDir   string
	configManager service.ConfigManager
	engineOpts    []engine.Option
}

// NewFilePersistence creates a new file-based session persistence layer.
// opts are applied to every engine rebuilt by Load.
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager, opts ...engine.Option) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir:   sessionsDir,
		configManager: configManager,
		engineOpts:    opts,
	}, nil
}

// Save writes the session's game state and rules
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	configID, err := fp.configIDFor(session.Config.Name)
	if err != nil {
		return fmt.Errorf("failed to get config ID: %w", err)
	}

	data, err := json.MarshalIndent(PersistedSessionData{
		Version:        snapshotVersion,
		ID:             session.ID,
		ConfigName:     configID,
		Config:         session.Config,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	return writeAtomic(fp.path(session.ID), data)
}

// writeAtomic replaces path through a temporary file so readers never see a
// truncated snapshot
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Load rebuilds a session's engine and restores its game. The preset is
// looked up by ID first; if it is gone or no longer valid the rules stored
// in the snapshot are used instead.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	raw, err := os.ReadFile(fp.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.Version > snapshotVersion {
		return nil, fmt.Errorf("session %s has snapshot version %d, newest supported is %d", id, data.Version, snapshotVersion)
	}
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", id)
	}

	gameConfig, err := fp.resolveConfig(data)
	if err != nil {
		return nil, err
	}

	gameEngine, err := engine.NewEngine(gameConfig, fp.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	if err := gameEngine.Restore(data.GameState); err != nil {
		return nil, fmt.Errorf("failed to restore game state: %w", err)
	}

	if data.ID == "" {
		data.ID = id
	}
	return &service.Session{
		ID:             data.ID,
		Engine:         gameEngine,
		Config:         gameConfig,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

func (fp *FilePersistence) resolveConfig(data PersistedSessionData) (*engine.GameConfig, error) {
	size := data.GameState.GridSize
	gameConfig, err := fp.configManager.LoadConfig(data.ConfigName)
	if err == nil && (size == 0 || gameConfig.GridSize == size) {
		return gameConfig, nil
	}
	if data.Config != nil && engine.ValidateGameConfig(data.Config) == nil {
		return data.Config, nil
	}
	if err == nil {
		return nil, fmt.Errorf("config '%s' no longer matches the saved %dx%d board", data.ConfigName, size, size)
	}
	return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	err := os.Remove(fp.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns the persisted session IDs in name order
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), snapshotExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.path(id))
	return err == nil
}

func (fp *FilePersistence) path(id string) string {
	return filepath.Join(fp.sessionsDir, id+snapshotExt)
}

// configIDFor maps a preset display name to its file-name ID. Unknown names
// are assumed to be IDs already.
func (fp *FilePersistence) configIDFor(displayName string) (string, error) {
	configs, err := fp.configManager.ListConfigs()
	if err != nil {
		return "", fmt.Errorf("failed to list configs: %w", err)
	}

	for _, config := range configs {
		if config.Name == displayName {
			return config.ConfigID, nil
		}
	}
	return displayName, nil
}
