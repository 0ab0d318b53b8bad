package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfig_MergesEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: ":8080"
db:
  host: localhost
  port: 5432
jwt:
  secret: "${JWT_TEST_SECRET}"
`)
	writeFile(t, dir, "staging.yaml", `
db:
  host: db.staging
`)
	writeFile(t, dir, "secrets.env", `
# comment
JWT_TEST_SECRET="s3cret"
`)

	cfgMap, err := LoadConfig("staging", dir)
	require.NoError(t, err)

	var cfg struct {
		Server ServerConfig `yaml:"server"`
		DB     DBConfig     `yaml:"db"`
		JWT    JWTConfig    `yaml:"jwt"`
	}
	require.NoError(t, Decode(cfgMap, &cfg))

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "db.staging", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port, "base values survive a partial overlay")
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestLoadConfig_MissingBase(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	assert.Error(t, err)
}

func TestDecode_Durations(t *testing.T) {
	var cfg JWTConfig
	require.NoError(t, Decode(map[string]interface{}{"secret": "x", "ttl": "90m"}, &cfg))
	assert.Equal(t, 90*time.Minute, cfg.TTL)
}

func TestOverrideDBFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "ledger")

	cfg := DBConfig{Host: "localhost", Port: 5432, Name: "x"}
	OverrideDBFromEnv(&cfg)

	assert.Equal(t, "pg", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "ledger", cfg.Name)
}

func TestMergeMaps_Nested(t *testing.T) {
	got := mergeMaps(
		map[string]interface{}{"a": map[string]interface{}{"x": 1, "y": 2}, "b": 1},
		map[string]interface{}{"a": map[string]interface{}{"y": 3}},
	)
	assert.Equal(t, map[string]interface{}{"a": map[string]interface{}{"x": 1, "y": 3}, "b": 1}, got)
}
