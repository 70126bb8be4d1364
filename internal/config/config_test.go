package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
telegram:
  token: "123:abc"
hotels:
  host: hotels4.p.rapidapi.com
  api_key: secret
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Hotels.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Hotels.RequestsPerSecond)
	assert.Equal(t, "en_US", cfg.Hotels.Locale)
	assert.Equal(t, 15, cfg.Search.MaxHotels)
	assert.Equal(t, 10, cfg.Search.MaxImages)
	assert.Equal(t, SessionsMemory, cfg.Sessions.Backend)
	require.NotNil(t, cfg.CoreConfig())
	assert.Equal(t, "123:abc", cfg.CoreConfig().Telegram.Token)
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
hotels:
  host: hotels4.p.rapidapi.com
`))
	assert.ErrorContains(t, err, "hotels.api_key")
}

func TestLoadRedisBackendNeedsAddr(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
sessions:
  backend: redis
`))
	assert.ErrorContains(t, err, "sessions.redis_addr")

	cfg, err := Load(writeConfig(t, minimalYAML+`
sessions:
  backend: redis
  redis_addr: localhost:6379
  ttl_hours: 12
`))
	require.NoError(t, err)
	assert.Equal(t, SessionsRedis, cfg.Sessions.Backend)
	assert.Equal(t, 12, cfg.Sessions.TTLHours)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
sessions:
  backend: etcd
`))
	assert.ErrorContains(t, err, "sessions.backend")
}
