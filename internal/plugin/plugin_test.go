package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/vitalis/spy/internal/collector"
	"github.com/Guliveer/vitalis/spy/internal/config"
	"github.com/Guliveer/vitalis/spy/internal/handler"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Poll.Interval = config.Duration{Duration: 10 * time.Millisecond}
	cfg.Bridge.Mode = config.BridgeLocal
	cfg.Settings.Path = filepath.Join(t.TempDir(), "vitalis-spy.yaml")
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bridge.Mode = "carrier-pigeon"
	_, err := New(cfg, collector.NewMockProvider(), "test", nil)
	assert.Error(t, err)
}

func TestLifecycle(t *testing.T) {
	cfg := testConfig(t)
	provider := collector.NewMockProvider()
	provider.SetCPU(42.5)

	p, err := New(cfg, provider, "0.1.0", nil)
	require.NoError(t, err)
	h := p.Handler()
	ctx := context.Background()

	assert.Equal(t, handler.CodeFail, h.GetCPU(ctx).Code)

	require.NoError(t, p.OnLoad(ctx))
	assert.True(t, p.Loaded())
	assert.Error(t, p.OnLoad(ctx), "second load is rejected")

	require.Eventually(t, func() bool { return h.GetCPU(ctx).OK() }, 2*time.Second, time.Millisecond)
	assert.Equal(t, "0.1.0", h.GetVersion(ctx).Data)

	top := h.GetTopKMemProcs(ctx, 1)
	require.True(t, top.OK(), top.Data)

	p.OnUnload()
	assert.False(t, p.Loaded())
	assert.Equal(t, handler.CodeFail, h.GetCPU(ctx).Code, "cache cleared on unload")

	// Unloading twice is harmless, and the plugin can be loaded again.
	p.OnUnload()
	require.NoError(t, p.OnLoad(ctx))
	require.Eventually(t, func() bool { return h.GetCPU(ctx).OK() }, 2*time.Second, time.Millisecond)
	p.OnUnload()
}

func TestOnLoadReadsSettings(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Settings.Path, []byte("ui.theme: dark\n"), 0644))

	p, err := New(cfg, collector.NewMockProvider(), "test", nil)
	require.NoError(t, err)
	require.NoError(t, p.OnLoad(context.Background()))
	defer p.OnUnload()

	assert.Equal(t, "dark", p.Handler().GetSettings(context.Background(), "ui.theme", "light").Data)
}

func TestOnLoadSurvivesBadSettings(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Settings.Path, []byte("key: [unclosed\n"), 0644))

	p, err := New(cfg, collector.NewMockProvider(), "test", nil)
	require.NoError(t, err)
	require.NoError(t, p.OnLoad(context.Background()))
	defer p.OnUnload()
	assert.True(t, p.Loaded())
}

func TestOnMigrate(t *testing.T) {
	cfg := testConfig(t)
	legacy := filepath.Join(t.TempDir(), "decky-spy.yaml")
	require.NoError(t, os.WriteFile(legacy, []byte("debug.backend: true\n"), 0644))
	cfg.Settings.LegacyPaths = []string{legacy}

	p, err := New(cfg, collector.NewMockProvider(), "test", nil)
	require.NoError(t, err)
	require.NoError(t, p.OnMigrate())
	require.NoError(t, p.OnLoad(context.Background()))
	defer p.OnUnload()

	assert.Equal(t, true, p.Handler().GetSettings(context.Background(), "debug.backend", false).Data)
}
