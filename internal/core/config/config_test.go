package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		names = append(names, fe.Field)
	}
	return names
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), dataDir)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Recent.Capacity)
	assert.Equal(t, BackendPrefs, cfg.Recent.Backend)
	assert.Equal(t, "recent_searches", cfg.Recent.Key)
	assert.False(t, cfg.Recent.FoldCase)
	assert.Equal(t, "android", cfg.Push.Platform)
	assert.Equal(t, 10*time.Second, cfg.Push.Timeout)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "prefs.json"), cfg.PrefsFile())
	assert.Equal(t, filepath.Join(dataDir, "casa.db"), cfg.DatabaseFile())
}

func TestLoad_FileOverridesAndPartialDefaults(t *testing.T) {
	path := writeConfig(t, `
recent:
  capacity: 5
  fold_case: true
  backend: sqlite
  async: true
  seed_from: prefs
push:
  endpoint: https://api.example.com/v1
  timeout: 3s
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Recent.Capacity)
	assert.True(t, cfg.Recent.FoldCase)
	assert.Equal(t, BackendSQLite, cfg.Recent.Backend)
	assert.True(t, cfg.Recent.Async)
	assert.Equal(t, BackendPrefs, cfg.Recent.SeedFrom)
	assert.Equal(t, "recent_searches", cfg.Recent.Key, "unset key falls back to default")
	assert.Equal(t, "https://api.example.com/v1", cfg.Push.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Push.Timeout)
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, "recent: [unclosed")

	_, err := Load(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := writeConfig(t, `
recent:
  capacity: -1
  backend: redis
`)

	_, err := Load(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.ElementsMatch(t, []string{"recent.capacity", "recent.backend"}, fieldNames(t, err))
}

func TestRead_DoesNotValidate(t *testing.T) {
	path := writeConfig(t, `
recent:
  capacity: -1
`)

	cfg, err := Read(path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Recent.Capacity)
	assert.Equal(t, []string{"recent.capacity"}, fieldNames(t, cfg.Validate()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		fields []string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }, fields: []string{"data_dir"}},
		{name: "zero capacity", mutate: func(c *Config) { c.Recent.Capacity = 0 }, fields: []string{"recent.capacity"}},
		{name: "empty key", mutate: func(c *Config) { c.Recent.Key = "" }, fields: []string{"recent.key"}},
		{name: "seed same as backend", mutate: func(c *Config) { c.Recent.SeedFrom = BackendPrefs }, fields: []string{"recent.seed_from"}},
		{name: "memory backend", mutate: func(c *Config) { c.Recent.Backend = BackendMemory }},
		{name: "seed from memory", mutate: func(c *Config) { c.Recent.Backend = BackendSQLite; c.Recent.SeedFrom = BackendMemory }, fields: []string{"recent.seed_from"}},
		{name: "unknown seed", mutate: func(c *Config) { c.Recent.SeedFrom = "cloud" }, fields: []string{"recent.seed_from"}},
		{name: "unknown platform", mutate: func(c *Config) { c.Push.Platform = "symbian" }, fields: []string{"push.platform"}},
		{name: "negative timeout", mutate: func(c *Config) { c.Push.Timeout = -time.Second }, fields: []string{"push.timeout"}},
		{name: "relative endpoint", mutate: func(c *Config) { c.Push.Endpoint = "/v1" }, fields: []string{"push.endpoint"}},
		{name: "non-http endpoint", mutate: func(c *Config) { c.Push.Endpoint = "ftp://example.com" }, fields: []string{"push.endpoint"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.fields, fieldNames(t, err))
		})
	}
}

func TestWarnings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()

	warnings := cfg.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "push.endpoint", warnings[0].Item)

	cfg.Push.Endpoint = "https://api.example.com"
	cfg.Recent.Capacity = 500
	warnings = cfg.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "recent.capacity", warnings[0].Item)
}
