package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.Equal(t, "./batchgen.db", cfg.DatabasePath, "must not share the older tool's batch_data.db")
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batchgen_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"databasePath": "/data/batches.db",
		"typeCodeMode": "binary",
		"specialType": "Premium",
		"undoWindow": 15,
		"sequenceDigits": 2,
		"openWindow": false
	}`), 0644))

	t.Setenv("BATCHGEN_UNDO_WINDOW", "5")
	t.Setenv("BATCHGEN_LISTEN_ADDR", "127.0.0.1:9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/batches.db", cfg.DatabasePath)
	assert.Equal(t, TypeCodeBinary, cfg.TypeCodeMode)
	assert.Equal(t, "Premium", cfg.SpecialType)
	assert.Equal(t, 5, cfg.UndoWindow)
	assert.Equal(t, 2, cfg.SequenceDigits)
	assert.Equal(t, "127.0.0.1:9090", cfg.ListenAddr)
	assert.False(t, cfg.OpenWindow)
	assert.Equal(t, "./colors.txt", cfg.ColorsFile, "unset fields keep defaults")
}

func TestLoadZeroValuesFallBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batchgen_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"undoWindow": 0, "tickIntervalMs": 0, "typeCodeMode": ""}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.UndoWindow)
	assert.Equal(t, 1000, cfg.TickIntervalMs)
	assert.Equal(t, TypeCodeIndex, cfg.TypeCodeMode)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batchgen_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.TypeCodeMode = "hex" }},
		{"binary without special type", func(c *Config) { c.TypeCodeMode = TypeCodeBinary }},
		{"zero sequence digits", func(c *Config) { c.SequenceDigits = 0 }},
		{"too many sequence digits", func(c *Config) { c.SequenceDigits = 7 }},
		{"negative window", func(c *Config) { c.UndoWindow = -1 }},
		{"zero tick", func(c *Config) { c.TickIntervalMs = 0 }},
		{"no database", func(c *Config) { c.DatabasePath = "" }},
		{"no colors file", func(c *Config) { c.ColorsFile = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batchgen_config.json")
	cfg := Default()
	cfg.SequenceDigits = 2
	cfg.TypeCodeMode = TypeCodeBinary
	cfg.SpecialType = "Sample"

	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batchgen_config.json")
	cfg := Default()
	cfg.TypeCodeMode = "bogus"

	require.Error(t, Save(path, cfg))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
