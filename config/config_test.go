package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, 300*time.Second, cfg.Ban.InitialDelay())
	require.Equal(t, 10800*time.Second, cfg.Ban.MaxDelay())
	require.Equal(t, 5, cfg.Ban.MaxRequests)
	require.Equal(t, 60*time.Second, cfg.Ban.Period())
	require.Equal(t, 5, cfg.Ban.RemindEvery)
	require.Equal(t, 1500*time.Millisecond, cfg.Aging.GCTick())
	require.Equal(t, 60*time.Second, cfg.Token.Life())
	require.Equal(t, 3600*time.Second, cfg.Token.ClockSkew())
	require.Equal(t, 300*time.Second, cfg.DHT.TokenRotation())
	require.Equal(t, 4, cfg.DHT.TokenBytes)
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ward.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ban]
max_requests = 10
initial_delay = 120
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Ban.MaxRequests)
	require.Equal(t, 120*time.Second, cfg.Ban.InitialDelay())
	// untouched sections keep defaults
	require.Equal(t, 5, cfg.Ban.RemindEvery)
	require.Equal(t, 4, cfg.DHT.TokenBytes)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/ward.toml")
	require.Error(t, err)
}
