package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Host method names.
const (
	MethodGetCPU          = "get_cpu"
	MethodGetMemory       = "get_memory"
	MethodGetBattery      = "get_battery"
	MethodGetNetInterface = "get_net_interface"
	MethodGetTopKMemProcs = "get_top_k_mem_procs"
	MethodGetBoottime     = "get_boottime"
	MethodGetVersion      = "get_version"
	MethodGetSettings     = "get_settings"
	MethodSetSettings     = "set_settings"
	MethodCommitSettings  = "commit_settings"
	MethodGetToken        = "get_token"
	MethodCheckToken      = "check_token"
	MethodLog             = "log"
	MethodLogError        = "log_err"
)

type topKArgs struct {
	K int `json:"k"`
}

type getSettingsArgs struct {
	Key     string      `json:"key"`
	Default interface{} `json:"default"`
}

type setSettingsArgs struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type tokenArgs struct {
	Token string `json:"token"`
}

type logArgs struct {
	Message string `json:"message"`
}

// Dispatch routes a host method to its operation. args is the method's
// JSON argument object and may be empty.
func (h *Handler) Dispatch(ctx context.Context, method string, args json.RawMessage) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			env = failEnvelope(fmt.Sprintf("%s: panic: %v", method, r))
		}
	}()

	switch method {
	case MethodGetCPU:
		return h.GetCPU(ctx)
	case MethodGetMemory:
		return h.GetMemory(ctx)
	case MethodGetBattery:
		return h.GetBattery(ctx)
	case MethodGetNetInterface:
		return h.GetNetInterface(ctx)
	case MethodGetTopKMemProcs:
		var a topKArgs
		if err := decodeArgs(args, &a); err != nil {
			return failEnvelope(fmt.Sprintf("%s: %v", method, err))
		}
		return h.GetTopKMemProcs(ctx, a.K)
	case MethodGetBoottime:
		return h.GetBoottime(ctx)
	case MethodGetVersion:
		return h.GetVersion(ctx)
	case MethodGetSettings:
		var a getSettingsArgs
		if err := decodeArgs(args, &a); err != nil {
			return failEnvelope(fmt.Sprintf("%s: %v", method, err))
		}
		return h.GetSettings(ctx, a.Key, a.Default)
	case MethodSetSettings:
		var a setSettingsArgs
		if err := decodeArgs(args, &a); err != nil {
			return failEnvelope(fmt.Sprintf("%s: %v", method, err))
		}
		return h.SetSettings(ctx, a.Key, a.Value)
	case MethodCommitSettings:
		return h.CommitSettings(ctx)
	case MethodGetToken:
		return h.GetToken(ctx)
	case MethodCheckToken:
		var a tokenArgs
		if err := decodeArgs(args, &a); err != nil {
			return failEnvelope(fmt.Sprintf("%s: %v", method, err))
		}
		return h.CheckToken(ctx, a.Token)
	case MethodLog, MethodLogError:
		var a logArgs
		if err := decodeArgs(args, &a); err != nil {
			return failEnvelope(fmt.Sprintf("%s: %v", method, err))
		}
		if method == MethodLog {
			return h.Log(ctx, a.Message)
		}
		return h.LogError(ctx, a.Message)
	default:
		return failEnvelope(fmt.Sprintf("unknown method %q", method))
	}
}

func decodeArgs(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := codec.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
