package home

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-courseforge")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/test-courseforge", dir.Path())
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		require.NoError(t, err)

		home, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(home, DefaultDirName), dir.Path())
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-courseforge")

	assert.Equal(t, "/tmp/test-courseforge/config.yaml", dir.ConfigPath())
	assert.Equal(t, "/tmp/test-courseforge/.env", dir.EnvPath())
}

func TestDir_EnsureExists(t *testing.T) {
	cfDir := filepath.Join(t.TempDir(), "courseforge-test")

	dir, err := New(cfDir)
	require.NoError(t, err)

	assert.False(t, dir.Exists(), "directory should not exist before EnsureExists")
	require.NoError(t, dir.EnsureExists())
	assert.True(t, dir.Exists(), "directory should exist after EnsureExists")
}

func TestDir_ConfigExists(t *testing.T) {
	dir, _ := New(t.TempDir())

	assert.False(t, dir.ConfigExists(), "config should not exist initially")

	require.NoError(t, os.WriteFile(dir.ConfigPath(), []byte("log_level: info\n"), 0644))
	assert.True(t, dir.ConfigExists(), "config should exist after creation")
}
