package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
log_directory: /journals
colonized_systems:
  - SystemAddress: 3107509474002
    Name: Colony One
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/journals", cfg.LogDirectory)
	assert.Equal(t, "Journal.*.log", cfg.Journal.FilePattern)
	assert.Equal(t, "Cargo.json", cfg.Journal.CargoFile)
	assert.Equal(t, 60*time.Second, cfg.Journal.ScanInterval)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "ledger.db", cfg.Database.DSN)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.False(t, cfg.Push.Enabled())

	set := cfg.ColonizedSet()
	assert.True(t, set.Contains(3107509474002))
	assert.False(t, set.Contains(1))
}

func TestLoad_AcceptsJSON(t *testing.T) {
	path := writeConfig(t, `{"log_directory": "C:/Journals", "colonized_systems": [{"SystemAddress": 42}]}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "C:/Journals", cfg.LogDirectory)
	assert.True(t, cfg.ColonizedSet().Contains(42))
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		invalid bool
	}{
		{name: "missing log directory", body: "journal: {cargo_file: Cargo.json}", invalid: true},
		{name: "unknown driver", body: "log_directory: /j\ndatabase: {driver: oracle, dsn: x}", invalid: true},
		{name: "postgres without dsn", body: "log_directory: /j\ndatabase: {driver: postgres}", invalid: true},
		{name: "system without address", body: "log_directory: /j\ncolonized_systems: [{Name: Nowhere}]", invalid: true},
		{name: "broken yaml", body: "log_directory: [unterminated", invalid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Equal(t, tc.invalid, errors.Is(err, ErrInvalid))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}
