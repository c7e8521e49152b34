package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/Guliveer/vitalis/spy/internal/collector"
)

// ErrUnknownCommand is returned for a command name no source understands.
var ErrUnknownCommand = errors.New("unknown command")

// DefaultTopK is the process count used when --k is not given.
const DefaultTopK = 10

// LocalSource answers helper commands in-process from a Provider. It emits
// the same Document a subprocess would print, so the Bridge cannot tell
// the two apart. The helper subcommands of the binary use it too.
type LocalSource struct {
	provider  collector.Provider
	cpuWindow time.Duration
}

// NewLocalSource creates a LocalSource sampling CPU over the default window.
func NewLocalSource(p collector.Provider) *LocalSource {
	return &LocalSource{provider: p, cpuWindow: collector.DefaultCPUWindow}
}

// Run samples the metric behind command and encodes it as a Document.
func (s *LocalSource) Run(ctx context.Context, command string, args []string) ([]byte, error) {
	value, err := s.sample(ctx, command, args)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(Document{Result: value})
}

func (s *LocalSource) sample(ctx context.Context, command string, args []string) (interface{}, error) {
	switch command {
	case CmdCPU:
		return collector.SampleCPU(ctx, s.provider, s.cpuWindow)
	case CmdMemory:
		return collector.SampleMemory(ctx, s.provider)
	case CmdBattery:
		return collector.SampleBattery(ctx, s.provider)
	case CmdNetInterface:
		return collector.SampleNetInterfaces(ctx, s.provider)
	case CmdBootTime:
		return collector.SampleBootTime(ctx, s.provider)
	case CmdTopKMemProcs:
		k, err := parseK(args)
		if err != nil {
			return nil, err
		}
		return collector.SampleTopProcesses(ctx, s.provider, k)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

func parseK(args []string) (int, error) {
	fs := pflag.NewFlagSet(CmdTopKMemProcs, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	k := fs.Int("k", DefaultTopK, "number of results")
	if err := fs.Parse(args); err != nil {
		return 0, fmt.Errorf("%s: %w", CmdTopKMemProcs, err)
	}
	return *k, nil
}
