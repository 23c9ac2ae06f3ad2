package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphexec/pkg/spawn"
)

func TestLoad_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
log:
  level: info
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "parallel", cfg.Runtime.Mode)
	assert.Equal(t, 0, cfg.Runtime.MaxWorkers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, spawn.Parallel, cfg.Mode())
}

func TestLoad_CustomValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
runtime:
  mode: serial
  max_workers: 4
log:
  level: debug
  output_path: /tmp/graphexec.log
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, "serial", cfg.Runtime.Mode)
	assert.Equal(t, 4, cfg.Runtime.MaxWorkers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/graphexec.log", cfg.Log.OutputPath)
	assert.Equal(t, spawn.Serial, cfg.Mode())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "parallel", cfg.Runtime.Mode)
}

func TestLoadFromReader(t *testing.T) {
	content := []byte(`
runtime:
  mode: serial
`)
	cfg, err := LoadFromReader("yaml", content)
	require.NoError(t, err)
	assert.Equal(t, "serial", cfg.Runtime.Mode)
}

func TestValidate_BadMode(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(`
runtime:
  mode: quantum
`))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestValidate_NegativeWorkers(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(`
runtime:
  max_workers: -1
`))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}
