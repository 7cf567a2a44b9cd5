package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) ConfigPath {
	t.Helper()
	path := filepath.Join(t.TempDir(), "purlfy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return ConfigPath(path)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(ConfigPath(filepath.Join(t.TempDir(), "nope.yaml")))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
engine:
  redirectEnabled: true
  maxIterations: 3
  statistics:
    url: 7
    char: 100
fetch:
  timeout: 2s
  userAgent: purlfy-test
rules:
  remoteBase: https://rules.example/
  enabled: [tracking, outgoing]
database:
  driver: sqlite
  path: ":memory:"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Engine.Fetch())
	assert.False(t, cfg.Engine.LambdaEnabled)
	assert.Equal(t, 3, cfg.Engine.MaxIterations)
	assert.Equal(t, int64(7), cfg.Engine.Statistics.URL)
	assert.Equal(t, int64(100), cfg.Engine.Statistics.Char)
	assert.Equal(t, 2*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "purlfy-test", cfg.Fetch.UserAgent)
	assert.Equal(t, []string{"tracking", "outgoing"}, cfg.Rules.Enabled)
	assert.Equal(t, "rules", cfg.Rules.Dir)
	assert.True(t, cfg.DatabaseConfig.Enabled())
	assert.Equal(t, ":memory:", cfg.DatabaseConfig.GetDSN())
	assert.False(t, cfg.RedisConfig.Enabled())
	// untouched sections keep defaults
	assert.Equal(t, int64(4<<20), cfg.Fetch.MaxBodyBytes)
	assert.Equal(t, 10, cfg.DatabaseOptionConfig.MaxOpenConns)
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := writeConfig(t, "engine:\n  lambdaEnabled: true\n")
	t.Setenv(configPathEnv, string(path))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Engine.LambdaEnabled)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "engine: [1"},
		{name: "zero iterations", content: "engine:\n  maxIterations: 0\n"},
		{name: "unknown driver", content: "database:\n  driver: oracle\n"},
		{name: "mysql without host", content: "database:\n  driver: mysql\n  port: 3306\n"},
		{name: "sqlite without path", content: "database:\n  driver: sqlite\n"},
		{name: "pool sizes", content: "databaseConfig:\n  maxIdleConns: 20\n  maxOpenConns: 10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	db := DatabaseConfig{Driver: DriverMySQL, Host: "db", Port: 3306, Username: "u", Password: "p", Database: "purlfy"}
	assert.Equal(t, "u:p@tcp(db:3306)/purlfy?charset=utf8mb4&parseTime=True&loc=UTC", db.GetDSN())
}
