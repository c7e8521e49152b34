// Package plugin wires the backend together and exposes the host lifecycle
// hooks. One Plugin owns exactly one poller, cache and handler.
package plugin

import (
	"context"
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/spy/internal/bridge"
	"github.com/Guliveer/vitalis/spy/internal/cache"
	"github.com/Guliveer/vitalis/spy/internal/collector"
	"github.com/Guliveer/vitalis/spy/internal/config"
	"github.com/Guliveer/vitalis/spy/internal/handler"
	"github.com/Guliveer/vitalis/spy/internal/scheduler"
	"github.com/Guliveer/vitalis/spy/internal/settings"
)

// Plugin is a loaded backend instance.
type Plugin struct {
	cfg    *config.Config
	logger *zap.Logger

	settings *settings.Store
	store    *cache.Store
	poller   *scheduler.Poller
	handler  *handler.Handler

	loaded atomic.Bool
}

// New builds every component from cfg. p supplies the OS metrics; a nil p
// uses the gopsutil-backed provider.
func New(cfg *config.Config, p collector.Provider, version string, logger *zap.Logger) (*Plugin, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if p == nil {
		p = collector.NewSystemProvider(nil)
	}

	br, err := bridge.FromConfig(cfg.Bridge, p, logger)
	if err != nil {
		return nil, err
	}

	st := settings.New(cfg.Settings.Path, logger)
	store := cache.New()
	registry := collector.NewDefaultRegistry(p, logger)
	poller := scheduler.New(registry, store, cfg.Poll.Interval.Duration, logger)

	h := handler.New(store, br, st, handler.Options{
		Version:      version,
		DefaultK:     cfg.Procs.DefaultK,
		DebugDefault: cfg.Settings.DebugDefault,
	}, logger)

	return &Plugin{
		cfg:      cfg,
		logger:   logger,
		settings: st,
		store:    store,
		poller:   poller,
		handler:  h,
	}, nil
}

// Handler returns the request handler.
func (p *Plugin) Handler() *handler.Handler { return p.handler }

// Loaded reports whether OnLoad ran without a matching OnUnload.
func (p *Plugin) Loaded() bool { return p.loaded.Load() }

// OnMigrate moves legacy settings into place before the first load.
func (p *Plugin) OnMigrate() error {
	p.logger.Info("Migrating")
	from, err := settings.MigrateLegacy(p.cfg.Settings.Path, p.cfg.Settings.LegacyPaths, p.logger)
	if err != nil {
		return err
	}
	if from != "" {
		p.logger.Info("Settings migrated", zap.String("from", from), zap.String("to", p.cfg.Settings.Path))
	}
	return nil
}

// OnLoad reads settings and starts the poller. A settings read failure is
// logged and loading continues with empty settings.
func (p *Plugin) OnLoad(ctx context.Context) error {
	if !p.loaded.CompareAndSwap(false, true) {
		return fmt.Errorf("plugin already loaded")
	}
	if err := p.settings.Read(); err != nil {
		p.logger.Warn("Failed to read settings", zap.Error(err))
	}
	p.poller.Start(ctx)
	p.logger.Info("Plugin loaded",
		zap.String("settings", p.settings.Path()),
		zap.String("bridge_mode", p.cfg.Bridge.Mode))
	return nil
}

// OnUnload stops the poller and discards cached telemetry.
func (p *Plugin) OnUnload() {
	if !p.loaded.CompareAndSwap(true, false) {
		return
	}
	p.poller.Stop()
	p.store.Clear()
	p.logger.Info("Plugin unloaded")
}
