package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // no config file present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, int64(32768), cfg.ReadLimit)

	require.Len(t, cfg.IceServers, 2)
	assert.Equal(t, []string{"stun:rtc.crispytalk.info:3478"}, cfg.IceServers[0].URLs)
	assert.Equal(t, "webrtcuser", cfg.IceServers[1].Username)
	assert.Equal(t, "webrtcpassword", cfg.IceServers[1].Credential)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "4000")
	t.Setenv("REDIS_URL", "redis://redis.internal:6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "redis://redis.internal:6380", cfg.RedisURL)
}
