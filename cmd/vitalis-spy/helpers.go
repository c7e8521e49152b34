package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Guliveer/vitalis/spy/internal/bridge"
	"github.com/Guliveer/vitalis/spy/internal/collector"
)

var helperShort = map[string]string{
	bridge.CmdCPU:          "Print overall CPU usage",
	bridge.CmdMemory:       "Print virtual and swap memory usage",
	bridge.CmdTopKMemProcs: "Print the processes using the most resident memory",
	bridge.CmdBootTime:     "Print the boot time in unix seconds",
	bridge.CmdBattery:      "Print the battery state",
	bridge.CmdNetInterface: "Print network interfaces and their addresses",
}

// newHelperCmds returns one subcommand per bridge command. Each prints a
// single {"result": ..., "debug": ""} document and exits non-zero on failure.
func newHelperCmds(provider collector.Provider) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(bridge.Commands))
	for _, name := range bridge.Commands {
		name := name
		c := &cobra.Command{
			Use:   name,
			Short: helperShort[name],
			Args:  cobra.NoArgs,
		}
		var k int
		if name == bridge.CmdTopKMemProcs {
			c.Flags().IntVar(&k, "k", bridge.DefaultTopK, "Number of results")
		}
		c.RunE = func(cmd *cobra.Command, args []string) error {
			var extra []string
			if name == bridge.CmdTopKMemProcs {
				extra = []string{bridge.KArg(k)}
			}
			return runHelper(cmd, provider, name, extra)
		}
		cmds = append(cmds, c)
	}
	return cmds
}

func runHelper(cmd *cobra.Command, provider collector.Provider, name string, args []string) error {
	if provider == nil {
		provider = collector.NewSystemProvider(nil)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := bridge.NewLocalSource(provider).Run(ctx, name, args)
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
