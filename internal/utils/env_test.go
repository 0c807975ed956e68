package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_ReadsWorkingDirectoryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AWAKEN_ENV_TEST=from-file\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("AWAKEN_ENV_TEST", "")
	require.NoError(t, os.Unsetenv("AWAKEN_ENV_TEST"))

	require.NoError(t, LoadEnv())
	assert.Equal(t, "from-file", os.Getenv("AWAKEN_ENV_TEST"))
}

func TestLoadEnv_ExistingVariableWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AWAKEN_ENV_TEST=from-file\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("AWAKEN_ENV_TEST", "from-env")

	require.NoError(t, LoadEnv())
	assert.Equal(t, "from-env", os.Getenv("AWAKEN_ENV_TEST"))
}

func TestLoadEnv_MissingFileIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, LoadEnv())
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o600))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	got, err := FindProjectRoot()
	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, want, gotResolved)
}
