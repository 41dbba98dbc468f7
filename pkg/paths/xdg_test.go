package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUptaskHomeOverridesXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("UPTASK_HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "/should/not/be/used")

	assert.Equal(t, filepath.Join(home, "config"), ConfigDir())
	assert.Equal(t, filepath.Join(home, "state"), StateDir())
	assert.Equal(t, filepath.Join(home, "cache"), CacheDir())
	assert.Equal(t, filepath.Join(home, "state", "session.yml"), SessionPath())
	assert.Equal(t, filepath.Join(home, "cache", "projects.db"), CachePath())
}

func TestXDGVariables(t *testing.T) {
	t.Setenv("UPTASK_HOME", "")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	assert.Equal(t, filepath.Join("/tmp/xdg-state", "uptask"), StateDir())
	assert.Equal(t, filepath.Join("/tmp/xdg-state", "uptask", "logs"), LogsDir())
}

func TestEnsureDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("UPTASK_HOME", home)

	require.NoError(t, EnsureDirs())
	assert.DirExists(t, ConfigDir())
	assert.DirExists(t, LogsDir())
	assert.DirExists(t, CacheDir())
}
