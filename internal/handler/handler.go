// Package handler implements the operations the host calls. Cheap metrics
// are served from the telemetry cache and never trigger sampling; expensive
// metrics go through the command bridge. Every operation returns an
// Envelope and no panic escapes it.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/spy/internal/bridge"
	"github.com/Guliveer/vitalis/spy/internal/cache"
	"github.com/Guliveer/vitalis/spy/internal/models"
	"github.com/Guliveer/vitalis/spy/internal/result"
	"github.com/Guliveer/vitalis/spy/internal/settings"
)

// ErrNotYetAvailable is reported for a cached kind the poller has not
// published yet. Callers should retry shortly.
var ErrNotYetAvailable = errors.New("not yet available")

// DefaultTopK is used when GetTopKMemProcs gets k <= 0 and Options.DefaultK is unset.
const DefaultTopK = 10

// tokenLength is the number of characters of a UUID used as a token.
const tokenLength = 6

// Invoker runs an expensive-metric command. *bridge.Bridge implements it.
type Invoker interface {
	Invoke(ctx context.Context, command string, args ...string) result.Result[json.RawMessage]
}

// SettingsStore is the key-value store behind the settings operations.
// *settings.Store implements it.
type SettingsStore interface {
	Get(key string, def interface{}) interface{}
	GetBool(key string, def bool) bool
	Set(key string, value interface{}) error
	Commit() error
}

// Options holds static handler parameters.
type Options struct {
	Version string
	// DefaultK replaces a non-positive k in GetTopKMemProcs.
	DefaultK int
	// DebugDefault applies when debug.frontend or debug.backend is unset.
	DebugDefault bool
}

// Handler serves host requests.
type Handler struct {
	cache    *cache.Store
	bridge   Invoker
	settings SettingsStore
	opts     Options
	logger   *zap.Logger

	token    atomic.String
	newToken func() string
}

// New creates a Handler.
func New(store *cache.Store, inv Invoker, st SettingsStore, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultK <= 0 {
		opts.DefaultK = DefaultTopK
	}
	return &Handler{
		cache:    store,
		bridge:   inv,
		settings: st,
		opts:     opts,
		logger:   logger.Named("handler"),
		newToken: func() string { return uuid.NewString()[:tokenLength] },
	}
}

// GetCPU returns the cached CPU usage.
func (h *Handler) GetCPU(ctx context.Context) Envelope {
	return h.cached(MethodGetCPU, models.KindCPU)
}

// GetMemory returns the cached virtual and swap memory statistics.
func (h *Handler) GetMemory(ctx context.Context) Envelope {
	return h.cached(MethodGetMemory, models.KindMemory)
}

// GetBattery returns the cached battery state.
func (h *Handler) GetBattery(ctx context.Context) Envelope {
	return h.cached(MethodGetBattery, models.KindBattery)
}

// GetNetInterface returns the cached network interfaces.
func (h *Handler) GetNetInterface(ctx context.Context) Envelope {
	return h.cached(MethodGetNetInterface, models.KindNetInterfaces)
}

// GetTopKMemProcs returns at most k processes by resident memory. k <= 0
// selects the configured default.
func (h *Handler) GetTopKMemProcs(ctx context.Context, k int) Envelope {
	if k <= 0 {
		k = h.opts.DefaultK
	}
	return h.bridged(ctx, MethodGetTopKMemProcs, bridge.CmdTopKMemProcs, bridge.KArg(k))
}

// GetBoottime returns the boot time in unix seconds.
func (h *Handler) GetBoottime(ctx context.Context) Envelope {
	return h.bridged(ctx, MethodGetBoottime, bridge.CmdBootTime)
}

// GetVersion returns the backend version.
func (h *Handler) GetVersion(ctx context.Context) Envelope {
	return h.serve(MethodGetVersion, func() Envelope {
		return okEnvelope(h.opts.Version)
	})
}

// GetSettings returns the value stored under key, or def.
func (h *Handler) GetSettings(ctx context.Context, key string, def interface{}) Envelope {
	return h.serve(MethodGetSettings, func() Envelope {
		return okEnvelope(h.settings.Get(key, def))
	})
}

// SetSettings stores value under key until the next commit.
func (h *Handler) SetSettings(ctx context.Context, key string, value interface{}) Envelope {
	return h.serve(MethodSetSettings, func() Envelope {
		if err := h.settings.Set(key, value); err != nil {
			return failEnvelope(err.Error())
		}
		return okEnvelope(nil)
	})
}

// CommitSettings persists pending settings.
func (h *Handler) CommitSettings(ctx context.Context) Envelope {
	return h.serve(MethodCommitSettings, func() Envelope {
		if err := h.settings.Commit(); err != nil {
			return failEnvelope(err.Error())
		}
		return okEnvelope(nil)
	})
}

// GetToken mints a new UI marker, replacing the previous one. The marker
// only lets the front-end notice that another instance took over; it is
// not a credential.
func (h *Handler) GetToken(ctx context.Context) Envelope {
	return h.serve(MethodGetToken, func() Envelope {
		tok := h.newToken()
		h.token.Store(tok)
		h.debugBackend("Generated new token", zap.String("token", tok))
		return okEnvelope(tok)
	})
}

// CheckToken reports whether token equals the latest minted marker.
// The empty string never matches.
func (h *Handler) CheckToken(ctx context.Context, token string) Envelope {
	return h.serve(MethodCheckToken, func() Envelope {
		return okEnvelope(token != "" && token == h.token.Load())
	})
}

// Log relays a front-end message when debug.frontend is on.
func (h *Handler) Log(ctx context.Context, message string) Envelope {
	return h.serve(MethodLog, func() Envelope {
		if h.debugEnabled(settings.KeyDebugFrontend) {
			h.logger.Info(message, zap.String("sender", "F"))
		}
		return okEnvelope(nil)
	})
}

// LogError relays a front-end error. It is always logged.
func (h *Handler) LogError(ctx context.Context, message string) Envelope {
	return h.serve(MethodLogError, func() Envelope {
		h.logger.Error(message, zap.String("sender", "F"))
		return okEnvelope(nil)
	})
}

func (h *Handler) cached(op string, kind models.Kind) Envelope {
	return h.serve(op, func() Envelope {
		entry, ok := h.cache.Read(kind)
		if !ok {
			return failEnvelope(ErrNotYetAvailable.Error())
		}
		return okEnvelope(entry.Record)
	})
}

func (h *Handler) bridged(ctx context.Context, op, command string, args ...string) Envelope {
	return h.serve(op, func() Envelope {
		return FromResult(h.bridge.Invoke(ctx, command, args...))
	})
}

// serve runs fn, converting a panic into a failure envelope, and traces the
// outcome when debug.backend is on.
func (h *Handler) serve(op string, fn func() Envelope) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Operation panicked", zap.String("sender", "B"), zap.String("op", op), zap.Any("panic", r))
			env = failEnvelope(fmt.Sprintf("%s: panic: %v\n%s", op, r, debug.Stack()))
		}
		if env.Code != CodeOK {
			h.logger.Warn("Operation failed", zap.String("sender", "B"), zap.String("op", op), zap.Any("data", env.Data))
			return
		}
		h.debugBackend("Operation served", zap.String("op", op), zap.Any("data", env.Data))
	}()
	return fn()
}

func (h *Handler) debugBackend(msg string, fields ...zap.Field) {
	if !h.debugEnabled(settings.KeyDebugBackend) {
		return
	}
	h.logger.Info(msg, append(fields, zap.String("sender", "B"))...)
}

func (h *Handler) debugEnabled(key string) bool {
	if h.settings == nil {
		return h.opts.DebugDefault
	}
	return h.settings.GetBool(key, h.opts.DebugDefault)
}
