// Package main is the entry point for vitalis-spy, the telemetry backend of
// the Vitalis handheld overlay.
//
//	vitalis-spy serve            host backend: JSON lines on stdin/stdout
//	vitalis-spy get-memory ...   one-shot helper commands used by the bridge
//	vitalis-spy config init      write an editable config file
//	vitalis-spy version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/spy/internal/collector"
	"github.com/Guliveer/vitalis/spy/internal/config"
	"github.com/Guliveer/vitalis/spy/internal/platform"
	"github.com/Guliveer/vitalis/spy/internal/plugin"
	"github.com/Guliveer/vitalis/spy/internal/rpc"
)

var (
	// version is set at build time via -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type rootOptions struct {
	configPath   string
	logLevel     string
	bridgeMode   string
	settingsPath string
}

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A nil provider samples the host.
func newRootCmd(provider collector.Provider) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "vitalis-spy",
		Short:         "Telemetry backend for the Vitalis overlay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file (default: auto-locate)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.bridgeMode, "bridge-mode", "", "How expensive metrics are fetched (exec, local)")
	root.PersistentFlags().StringVar(&opts.settingsPath, "settings", "", "Path to the settings file")

	root.AddCommand(newServeCmd(opts, provider))
	root.AddCommand(newVersionCmd())
	root.AddCommand(newConfigCmd(opts))
	for _, c := range newHelperCmds(provider) {
		root.AddCommand(c)
	}
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vitalis-spy %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func newServeCmd(opts *rootOptions, provider collector.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the host backend over stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, provider)
		},
	}
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cli := config.CLIOverrides{
		LogLevel:     opts.logLevel,
		BridgeMode:   opts.bridgeMode,
		SettingsPath: opts.settingsPath,
	}
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.LoadLayered(cli, embeddedConfig, opts.configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runServe loads the plugin and answers host requests until stdin closes
// or a signal arrives.
func runServe(ctx context.Context, cfg *config.Config, provider collector.Provider) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := initLogger(cfg)
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting vitalis-spy",
		zap.String("version", version),
		zap.Duration("poll_interval", cfg.Poll.Interval.Duration),
		zap.String("bridge_mode", cfg.Bridge.Mode))

	if provider == nil {
		plat := platform.New()
		logger.Info("Using host metrics", zap.String("platform", plat.Name()))
		provider = collector.NewSystemProvider(plat)
	}

	p, err := plugin.New(cfg, provider, version, logger)
	if err != nil {
		return err
	}
	if err := p.OnMigrate(); err != nil {
		logger.Warn("Migration failed", zap.Error(err))
	}
	if err := p.OnLoad(ctx); err != nil {
		return err
	}
	defer p.OnUnload()

	srv, err := rpc.NewServer(p.Handler(), cfg.RPC.Workers, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err = <-errCh:
		logger.Info("Host closed the connection")
	case <-ctx.Done():
		logger.Info("Received signal, shutting down")
		err = nil
	}
	return err
}
