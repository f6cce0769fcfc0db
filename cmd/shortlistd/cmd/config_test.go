package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirepath/shortlist/internal/config"
)

// inTempDir runs the test with a temp working directory so config init
// writes nowhere real.
func inTempDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })
	return tmpDir
}

func TestConfigInit_WritesTemplate(t *testing.T) {
	// Given: an empty working directory
	tmpDir := inTempDir(t)

	// When: running config init
	out, _, err := runCLI(t, "config", "init")

	// Then: the template lands in shortlist.yaml and parses as config
	require.NoError(t, err)
	assert.Contains(t, out, "Created shortlist.yaml")

	path := filepath.Join(tmpDir, "shortlist.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "listen_addr")
	assert.NotContains(t, string(data), "api_key:")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
}

func TestConfigInit_RefusesToOverwriteWithoutForce(t *testing.T) {
	// Given: an existing shortlist.yaml
	tmpDir := inTempDir(t)
	path := filepath.Join(tmpDir, "shortlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

	// When: running config init without --force
	out, _, err := runCLI(t, "config", "init")

	// Then: the existing file is untouched
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestConfigInit_ForceOverwrites(t *testing.T) {
	// Given: an existing shortlist.yaml
	tmpDir := inTempDir(t)
	path := filepath.Join(tmpDir, "shortlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

	// When: running config init --force
	out, _, err := runCLI(t, "config", "init", "--force")

	// Then: the template replaces the file
	require.NoError(t, err)
	assert.Contains(t, out, "Created shortlist.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "listen_addr")
}

func TestConfigShow_PrintsEffectiveConfigWithoutSecrets(t *testing.T) {
	// Given: a clean working directory
	inTempDir(t)

	// When: running config show
	out, _, err := runCLI(t, "config", "show")

	// Then: the effective YAML appears, with the API key absent
	require.NoError(t, err)
	assert.Contains(t, out, "effective shortlistd configuration")
	assert.Contains(t, out, "listen_addr:")
	assert.Contains(t, out, "k_dense:")
	assert.Contains(t, out, "rrf_weight:")
	assert.NotContains(t, out, "api_key")
}
