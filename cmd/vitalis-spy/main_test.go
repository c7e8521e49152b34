package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guliveer/vitalis/spy/internal/collector"
	"github.com/Guliveer/vitalis/spy/internal/config"
	"github.com/Guliveer/vitalis/spy/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(collector.NewMockProvider())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func decodeDocument(t *testing.T, out string) (json.RawMessage, string) {
	t.Helper()
	var doc struct {
		Result json.RawMessage `json:"result"`
		Debug  string          `json:"debug"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &doc), out)
	return doc.Result, doc.Debug
}

func TestHelperTopK(t *testing.T) {
	out, err := execute(t, "get-top-k-mem-procs", "--k=2")
	require.NoError(t, err)

	result, debug := decodeDocument(t, out)
	assert.Empty(t, debug)

	var procs models.TopProcesses
	require.NoError(t, json.Unmarshal(result, &procs))
	require.Len(t, procs, 2)
	assert.Equal(t, "steam", procs[0].Name)
}

func TestHelperCommands(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"get-boottime"}, `1700000000`},
		{[]string{"get-cpu"}, `{"percent":12.5}`},
		{[]string{"get-battery"}, `{"battery":true,"percent":80,"secsleft":9000,"plugged":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			result, _ := decodeDocument(t, out)
			assert.JSONEq(t, tt.want, string(result))
		})
	}

	for _, name := range []string{"get-memory", "get-net-interface"} {
		out, err := execute(t, name)
		require.NoError(t, err, name)
		result, _ := decodeDocument(t, out)
		assert.NotEmpty(t, result, name)
	}
}

func TestHelperRejectsArgs(t *testing.T) {
	_, err := execute(t, "get-memory", "extra")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vitalis-spy dev")
}

func TestLoadConfigFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("procs:\n  default_k: 4\n"), 0644))

	root := newRootCmd(collector.NewMockProvider())
	opts := &rootOptions{configPath: path, bridgeMode: config.BridgeLocal}
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	require.NoError(t, serve.ParseFlags([]string{"--config", path}))

	cfg, err := loadConfig(serve, opts)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Procs.DefaultK)
	assert.Equal(t, config.BridgeLocal, cfg.Bridge.Mode)

	opts.bridgeMode = "smoke-signals"
	_, err = loadConfig(serve, opts)
	assert.Error(t, err)
}

func TestInitLoggerWritesFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "vitalis-spy.log")

	logger := initLogger(cfg)
	logger.Info("hello from test")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitalis", "spy.yaml")

	out, err := execute(t, "config", "init", "--path", path, "--bridge-mode", config.BridgeLocal)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.LoadLayered(config.CLIOverrides{}, nil, path)
	require.NoError(t, err)
	assert.Equal(t, config.BridgeLocal, cfg.Bridge.Mode)
	assert.Equal(t, config.DefaultConfig().Procs.DefaultK, cfg.Procs.DefaultK)

	_, err = execute(t, "config", "init", "--path", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", "--path", path, "--force")
	require.NoError(t, err)
	cfg, err = config.LoadLayered(config.CLIOverrides{}, nil, path)
	require.NoError(t, err)
	assert.Equal(t, config.BridgeExec, cfg.Bridge.Mode)
}
