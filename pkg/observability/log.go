package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// charm logger.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks logging to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger.WithPrefix("trace")}
}

// Register installs h as pipeline, cache, store and server hooks.
func (h *LogHooks) Register() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetStoreHooks(h)
	SetServerHooks(h)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, source string, nodes int) {
	h.logger.Debug("layout start", "source", source, "nodes", nodes)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, source string, rows int, d time.Duration, err error) {
	h.done("layout", err, "source", source, "rows", rows, "took", d)
}

func (h *LogHooks) OnReconstructStart(_ context.Context, session string, events int) {
	h.logger.Debug("reconstruct start", "session", session, "events", events)
}

func (h *LogHooks) OnReconstructComplete(_ context.Context, session string, series int, d time.Duration, err error) {
	h.done("reconstruct", err, "session", session, "series", series, "took", d)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	h.done("render", err, "format", format, "bytes", size, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnQuery(_ context.Context, op string, docs int, d time.Duration, err error) {
	h.done("store "+op, err, "docs", docs, "took", d)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "took", d)
}

func (h *LogHooks) done(what string, err error, kv ...any) {
	if err != nil {
		h.logger.Debug(what+" failed", append(kv, "err", err)...)
		return
	}
	h.logger.Debug(what+" done", kv...)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ StoreHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)
