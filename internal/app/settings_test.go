package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dayrally/dayrally/internal/models"
)

func resetSettingsStateForTest() {
	settingsOnce = sync.Once{}
	settings = Settings{}
	settingsErr = nil
	SetWorkspaceOverride("")
}

func TestWorkspaceDir_FlagOverrideWins(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DAYRALLY_WORKSPACE", "/tmp/from-env")

	SetWorkspaceOverride("/tmp/from-flag")

	dir, err := WorkspaceDir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-flag", dir)
}

func TestWorkspaceDir_EnvBeatsConfig(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DAYRALLY_WORKSPACE", "/tmp/from-env")

	configPath := filepath.Join(home, ".config", "dayrally", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte("workspace_path: /tmp/from-config\n"), 0o600))

	dir, err := WorkspaceDir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-env", dir)
}

func TestWorkspaceDir_ReadsConfig(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DAYRALLY_WORKSPACE", "")

	configPath := filepath.Join(home, ".config", "dayrally", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte("workspace_path: ~/DayRally\n"), 0o600))

	dir, err := WorkspaceDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "DayRally"), dir, "tilde expands to HOME")
}

func TestWorkspaceDir_UnsetReturnsSentinel(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DAYRALLY_WORKSPACE", "")

	// Run from an empty dir so no stray local config.yaml is picked up.
	workdir := t.TempDir()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workdir))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	_, err = WorkspaceDir()
	require.ErrorIs(t, err, models.ErrWorkspaceNotSet)
}

func TestSaveWorkspacePathRoundTrip(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DAYRALLY_WORKSPACE", "")

	require.NoError(t, SaveWorkspacePath("/tmp/saved-workspace"))

	dir, err := WorkspaceDir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/saved-workspace", dir)
}
