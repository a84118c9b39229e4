package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dayrally/dayrally/internal/models"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	WorkspacePath string `yaml:"workspace_path"`
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
// workspaceOverrideMu and workspaceOverride implement a mutex-protected process-wide override for CLI --workspace.
// These globals are required by the sync.Once pattern and the RWMutex pattern; they cannot be avoided.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex override are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	workspaceOverrideMu sync.RWMutex
	workspaceOverride   string
)

// SetWorkspaceOverride sets a process-wide workspace path override.
// Intended for CLI flag support (e.g. --workspace).
func SetWorkspaceOverride(path string) {
	workspaceOverrideMu.Lock()
	workspaceOverride = path
	workspaceOverrideMu.Unlock()
}

func getWorkspaceOverride() string {
	workspaceOverrideMu.RLock()
	v := workspaceOverride
	workspaceOverrideMu.RUnlock()
	return v
}

// WorkspaceDir resolves the active workspace directory.
// Lookup order (first found wins):
// 1) --workspace flag override
// 2) DAYRALLY_WORKSPACE environment variable
// 3) workspace_path in config.yaml
// Returns models.ErrWorkspaceNotSet when nothing is configured.
func WorkspaceDir() (string, error) {
	if v := getWorkspaceOverride(); v != "" {
		return expandHome(v)
	}
	if v := os.Getenv("DAYRALLY_WORKSPACE"); v != "" {
		return expandHome(v)
	}

	s, err := LoadSettings()
	if err != nil {
		return "", err
	}
	if s.WorkspacePath == "" {
		return "", models.ErrWorkspaceNotSet
	}
	return expandHome(s.WorkspacePath)
}

// SaveWorkspacePath persists the workspace path to config.yaml and resets the
// settings singleton so the new value is visible within this process.
func SaveWorkspacePath(path string) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	s, _ := LoadSettings()
	s.WorkspacePath = path

	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), b, 0600); err != nil {
		return err
	}

	settingsOnce = sync.Once{}
	return nil
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/dayrally/config.yaml
// 2) /etc/dayrally/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		// 1) User config (~/.config/dayrally/config.yaml)
		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		if s, err := loadSettingsFile(filepath.Join(dir, "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 2) /etc
		if s, err := loadSettingsFile(filepath.Join(string(os.PathSeparator), "etc", "dayrally", "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 3) Local ./config.yaml (lowest priority)
		if s, err := loadSettingsFile("config.yaml"); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}
	})

	return settings, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
