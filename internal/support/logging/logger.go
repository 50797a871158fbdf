// 文件路径: internal/support/logging/logger.go
// 模块说明: 这是 internal 模块里的日志构建逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options customize the slog logger construction.
type Options struct {
	Level     slog.Level
	Format    string
	AddSource bool
	Output    io.Writer
}

// New returns a slog.Logger configured according to options.
// Format accepts "text"/"console" for human-readable output; anything
// else falls back to JSON, which is what the serve daemon runs with.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "text", "console":
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	return slog.New(handler)
}
