package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvDefaults(t *testing.T) {
	t.Setenv("VITE_API_BASE_URL", "https://traffic.example/")
	t.Setenv("VITE_APP_NAME", "NOC")
	t.Setenv("TRAFFICDASH_DB", "/tmp/td.db")

	cfg, rest, err := Load("trafficdash", []string{"query", "time"})
	require.NoError(t, err)

	assert.Equal(t, "https://traffic.example", cfg.APIBaseURL)
	assert.Equal(t, "NOC", cfg.AppName)
	assert.Equal(t, "/tmp/td.db", cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"query", "time"}, rest)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("VITE_API_BASE_URL", "https://from-env.example")
	t.Setenv("TRAFFICDASH_DB", "/tmp/td.db")

	cfg, rest, err := Load("trafficdash", []string{"-api", "http://127.0.0.1:9000", "-timeout", "3s", "-debug", "login"})
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, []string{"login"}, rest)
}

func TestLoad_RejectsBadURL(t *testing.T) {
	t.Setenv("TRAFFICDASH_DB", "/tmp/td.db")

	_, _, err := Load("trafficdash", []string{"-api", "ftp://nope"})
	assert.Error(t, err)
}

func TestMockCredentials(t *testing.T) {
	cfg := &Config{MockUser: "alice:hunter22"}
	name, pw, ok := cfg.MockCredentials()
	assert.True(t, ok)
	assert.Equal(t, "alice", name)
	assert.Equal(t, "hunter22", pw)

	cfg.MockUser = "nopassword"
	_, _, ok = cfg.MockCredentials()
	assert.False(t, ok)
}
