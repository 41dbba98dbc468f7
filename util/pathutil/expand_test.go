package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := Expand("~/cache/projects.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache", "projects.db"), got)

	dir := t.TempDir()
	t.Setenv("UPTASK_TEST_DIR", dir)
	got, err = Expand("$UPTASK_TEST_DIR/projects.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "projects.db"), got)

	got, err = Expand("relative.db")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	_, err = Expand("$UPTASK_UNSET_VARIABLE_FOR_TEST")
	assert.Error(t, err)
}
