package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("EDITOR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/games/Steam/steamapps/common/The Witcher 3", cfg.W3Dir)
	assert.Equal(t, "vim", cfg.Editor)
	assert.Equal(t, []string{"**/*.ws"}, cfg.ScriptPatterns)
	assert.Equal(t, "mod0000_merged", cfg.MergedModName)
	assert.Empty(t, cfg.DiffCommand)
}

func TestLoadEditorFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("EDITOR", "nano")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "nano", cfg.Editor)
}

func TestLoadProjectFile(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("EDITOR", "")

	content := "w3dir: /opt/witcher3\nmerged_mod_name: mod0000_custom\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".wsmerge.yaml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/opt/witcher3", cfg.W3Dir)
	assert.Equal(t, "mod0000_custom", cfg.MergedModName)
	// Untouched keys keep defaults
	assert.Equal(t, "vim", cfg.Editor)
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}
