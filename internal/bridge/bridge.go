// Package bridge fetches expensive metrics on demand. A MetricSource runs
// one helper command per call, either as a subprocess or in-process, and
// the Bridge normalises its JSON output into a result.Result.
//
// Each call is independent: no pooling, no retry.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/spy/internal/collector"
	"github.com/Guliveer/vitalis/spy/internal/config"
	"github.com/Guliveer/vitalis/spy/internal/result"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Helper command names understood by every MetricSource.
const (
	CmdCPU          = "get-cpu"
	CmdMemory       = "get-memory"
	CmdTopKMemProcs = "get-top-k-mem-procs"
	CmdBootTime     = "get-boottime"
	CmdBattery      = "get-battery"
	CmdNetInterface = "get-net-interface"
)

// Commands lists every helper command in a stable order.
var Commands = []string{CmdCPU, CmdMemory, CmdTopKMemProcs, CmdBootTime, CmdBattery, CmdNetInterface}

// KArg formats the process count argument of CmdTopKMemProcs.
func KArg(k int) string {
	return "--k=" + strconv.Itoa(k)
}

// Document is the JSON object a helper command prints on success.
type Document struct {
	Result interface{} `json:"result"`
	Debug  string      `json:"debug"`
}

// MetricSource executes a helper command and returns its raw stdout.
type MetricSource interface {
	Run(ctx context.Context, command string, args []string) ([]byte, error)
}

// Bridge invokes helper commands through a MetricSource.
type Bridge struct {
	source MetricSource
	logger *zap.Logger
}

// New creates a Bridge over source.
func New(source MetricSource, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{source: source, logger: logger.Named("bridge")}
}

// FromConfig builds the source selected by cfg.Mode. In exec mode an empty
// cfg.Command means the running executable.
func FromConfig(cfg config.BridgeConfig, p collector.Provider, logger *zap.Logger) (*Bridge, error) {
	switch cfg.Mode {
	case config.BridgeLocal:
		return New(NewLocalSource(p), logger), nil
	case config.BridgeExec, "":
		path := cfg.Command
		if path == "" {
			self, err := os.Executable()
			if err != nil {
				return nil, fmt.Errorf("bridge: locating executable: %w", err)
			}
			path = self
		}
		return New(&ExecSource{Path: path, Args: cfg.Args, Timeout: cfg.Timeout.Duration}, logger), nil
	default:
		return nil, fmt.Errorf("bridge: unknown mode %q", cfg.Mode)
	}
}

// Invoke runs command and decodes its output. A {"result": v, "debug": s}
// document yields v; any other JSON value is returned as is. Launch errors,
// non-zero exits, undecodable output and panics all become diagnostics.
func (b *Bridge) Invoke(ctx context.Context, command string, args ...string) (res result.Result[json.RawMessage]) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Bridge panic", zap.String("command", command), zap.Any("panic", r))
			res = result.Failf[json.RawMessage]("%s: panic: %v\n%s", command, r, debug.Stack())
		}
	}()

	out, err := b.source.Run(ctx, command, args)
	if err != nil {
		b.logger.Warn("Command failed", zap.String("command", command), zap.Strings("args", args), zap.Error(err))
		return result.Fail[json.RawMessage](err.Error())
	}

	value, err := decode(out)
	if err != nil {
		b.logger.Warn("Undecodable command output", zap.String("command", command), zap.Error(err))
		return result.Failf[json.RawMessage]("%s: %v\n%s", command, err, bytes.TrimSpace(out))
	}

	b.logger.Debug("Command succeeded", zap.String("command", command), zap.Int("bytes", len(value)))
	return result.Ok(value)
}

func decode(out []byte) (json.RawMessage, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("empty output")
	}
	if !codec.Valid(out) {
		return nil, fmt.Errorf("malformed JSON output")
	}
	if out[0] == '{' {
		var doc map[string]json.RawMessage
		if err := codec.Unmarshal(out, &doc); err != nil {
			return nil, err
		}
		if inner, ok := doc["result"]; ok {
			return inner, nil
		}
	}
	return json.RawMessage(out), nil
}
