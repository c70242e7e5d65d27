package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInit_Defaults(t *testing.T) {
	cfg, err := Init("")
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.HTTPServer.Port)
	require.Equal(t, 1000, cfg.Simulation.TickPeriodMs)
	require.Equal(t, time.Second, cfg.Simulation.TickPeriod())
	require.Equal(t, 256, cfg.Simulation.QueueSize)
	require.Equal(t, 5*time.Second, cfg.Simulation.ReplyTimeout())
	require.Equal(t, "dir", cfg.Snapshots.Source)
	require.Equal(t, "history", cfg.Snapshots.Dir)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, int32(10), cfg.DbServer.MaxConns)
	require.Equal(t, 30, cfg.Report.IntervalSec)
}

func TestInit_FromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_server:
  port: "9090"
simulation:
  tick_period_ms: 250
snapshots:
  source: dir
  dir: /data/history
`), 0o600))

	t.Setenv("SIMEX_SIMULATION_TICK_PERIOD_MS", "500")
	t.Setenv("SIMEX_LOGGING_LEVEL", "debug")

	cfg, err := Init(path)
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.HTTPServer.Port)
	require.Equal(t, "/data/history", cfg.Snapshots.Dir)
	require.Equal(t, 500*time.Millisecond, cfg.Simulation.TickPeriod())
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestInit_MissingFile(t *testing.T) {
	_, err := Init(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "error reading config file")
}

func TestInit_Validation(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{
			name:    "non-positive tick period",
			env:     map[string]string{"SIMEX_SIMULATION_TICK_PERIOD_MS": "0"},
			wantMsg: "simulation.tick_period_ms must be positive",
		},
		{
			name:    "non-positive reply timeout",
			env:     map[string]string{"SIMEX_SIMULATION_REPLY_TIMEOUT_MS": "-1"},
			wantMsg: "simulation.reply_timeout_ms must be positive",
		},
		{
			name:    "unknown source",
			env:     map[string]string{"SIMEX_SNAPSHOTS_SOURCE": "s3"},
			wantMsg: `unknown snapshots.source "s3"`,
		},
		{
			name:    "http source without url",
			env:     map[string]string{"SIMEX_SNAPSHOTS_SOURCE": "http"},
			wantMsg: "snapshots.base_url is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Init("")
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestDbServer_GetConnectionStr(t *testing.T) {
	cfg := DbServer{Host: "db", Port: "5433", User: "u", Pass: "p", Name: "n"}
	require.Equal(t, "user=u password=p host=db port=5433 dbname=n sslmode=disable", cfg.GetConnectionStr())
}
