package infrastructure

import (
	"testing"
	"time"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/engine"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	config := NewConfig()

	require.Equal(t, engine.DefaultMaxNestingDepth, config.MaxNestingDepth)
	require.Equal(t, "127.0.0.1:8081", config.AdminListenAddr)
	require.NoError(t, config.Validate())
}

func TestNewConfigReadsEnv(t *testing.T) {
	t.Setenv("MAX_NESTING_DEPTH", "4")
	t.Setenv("ADMIN_TOKEN", "token")
	t.Setenv("WORKER_PROCESS_INTERVAL_AUDIT", "30s")

	config := NewConfig()

	require.Equal(t, 4, config.MaxNestingDepth)
	require.Equal(t, "token", config.AdminToken)
	require.Equal(t, 30*time.Second, config.WorkerProcessIntervalAudit)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero nesting depth", func(c *Config) { c.MaxNestingDepth = 0 }},
		{"negative nesting depth", func(c *Config) { c.MaxNestingDepth = -1 }},
		{"nesting depth above limit", func(c *Config) { c.MaxNestingDepth = engine.MaxNestingDepthLimit + 1 }},
		{"zero audit interval", func(c *Config) { c.WorkerProcessIntervalAudit = 0 }},
		{"zero max error count", func(c *Config) { c.ServiceMaxErrorCount = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig()
			tt.modify(config)
			require.Error(t, config.Validate())
		})
	}
}
