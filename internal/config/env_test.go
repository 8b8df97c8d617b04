package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "local", env.Env)
	assert.Equal(t, "3100", env.HTTPPort)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, "http://localhost:3100", env.APIURL)
	assert.Equal(t, 10*time.Second, env.Timeout)
	assert.Equal(t, 1, env.CrewID)
	assert.Equal(t, slog.LevelInfo, env.SlogLevel())
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("CREWDESK_LOG_LEVEL", "debug")
	t.Setenv("CREWDESK_SERVER_API_KEY", "server-key")
	t.Setenv("CREWDESK_API_KEY", "client-key")
	t.Setenv("CREWDESK_CREW_ID", "7")
	t.Setenv("CREWDESK_API_TIMEOUT", "3s")
	t.Setenv("CREWDESK_STORAGE_TYPE", "memory")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
	assert.Equal(t, "server-key", ServerEnvFromEnv(env).APIKey)
	assert.Equal(t, "client-key", ClientEnvFromEnv(env).APIKey)
	assert.Equal(t, 7, env.CrewID)
	assert.Equal(t, 3*time.Second, env.Timeout)
	assert.Equal(t, "memory", StorageEnvFromEnv(env).Type)
}

func TestLoadEnv_Invalid(t *testing.T) {
	t.Setenv("CREWDESK_CREW_ID", "seven")
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestSlogLevel_Fallback(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, (&BaseEnv{LogLevel: "loud"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (*BaseEnv)(nil).SlogLevel())
	assert.Equal(t, slog.LevelWarn, BaseEnvFromEnv(&Env{BaseEnv: BaseEnv{LogLevel: "warn"}}).SlogLevel())
}
