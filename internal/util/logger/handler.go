package logger

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dep2p/go-dep2p-graph/pkg/lib/log"
)

var (
	// globalOutput 全局日志输出目标
	globalOutput   io.Writer = io.Discard
	globalOutputMu sync.RWMutex
)

// dynamicWriter 每次写入时查找 globalOutput
//
// handler 创建后修改输出目标也能生效。
type dynamicWriter struct{}

func (dynamicWriter) Write(p []byte) (int, error) {
	globalOutputMu.RLock()
	out := globalOutput
	globalOutputMu.RUnlock()
	return out.Write(p)
}

// componentHandler 按组件过滤级别的 slog.Handler
//
// pkg/lib/log 的 LazyLogger 通过 With("component", ...) 附加组件名，
// WithAttrs 捕获该属性并切换到组件级别。
type componentHandler struct {
	cfg   *Config
	level slog.Level
	inner slog.Handler
}

func newComponentHandler(cfg Config) *componentHandler {
	opts := &slog.HandlerOptions{
		// 级别过滤由 componentHandler 完成
		Level:     slog.LevelDebug,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}

	var inner slog.Handler
	if cfg.Format == FormatJSON {
		inner = slog.NewJSONHandler(dynamicWriter{}, opts)
	} else {
		inner = slog.NewTextHandler(dynamicWriter{}, opts)
	}

	return &componentHandler{
		cfg:   &cfg,
		level: cfg.DefaultLevel,
		inner: inner,
	}
}

// Enabled 检查是否启用指定级别
func (h *componentHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle 处理日志记录
func (h *componentHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

// WithAttrs 添加属性，遇到组件名时切换级别
func (h *componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	level := h.level
	for _, a := range attrs {
		if a.Key == log.ComponentKey {
			level = h.cfg.LevelFor(a.Value.String())
		}
	}
	return &componentHandler{
		cfg:   h.cfg,
		level: level,
		inner: h.inner.WithAttrs(attrs),
	}
}

// WithGroup 添加组
func (h *componentHandler) WithGroup(name string) slog.Handler {
	return &componentHandler{
		cfg:   h.cfg,
		level: h.level,
		inner: h.inner.WithGroup(name),
	}
}

// discardHandler 丢弃所有日志
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
