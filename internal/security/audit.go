// 文件路径: internal/security/audit.go
// 模块说明: 这是 internal 模块里的审计日志逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package security

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Event 表示一次安全相关行为，比如登录尝试或管理员写操作。
type Event struct {
	Kind      string
	ActorID   string
	IP        string
	UserAgent string
	Metadata  map[string]any
	Occurred  time.Time
}

// Recorder 记录安全事件，供后续排查。
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LoggerRecorder 把审计事件作为结构化日志写进 slog.Logger。
type LoggerRecorder struct {
	logger *slog.Logger
}

// NewLoggerRecorder 返回写入指定 logger 的记录器，logger 为空时静默丢弃。
func NewLoggerRecorder(logger *slog.Logger) *LoggerRecorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LoggerRecorder{logger: logger}
}

// Record 实现 Recorder，Occurred 未填时补当前时间。
func (r *LoggerRecorder) Record(ctx context.Context, event Event) {
	if r == nil || r.logger == nil {
		return
	}
	occurred := event.Occurred
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	attrs := []any{
		"kind", event.Kind,
		"actor", event.ActorID,
		"ip", event.IP,
		"occurred", occurred.Format(time.RFC3339Nano),
	}
	if event.UserAgent != "" {
		attrs = append(attrs, "user_agent", event.UserAgent)
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, "metadata", event.Metadata)
	}
	r.logger.InfoContext(ctx, "audit event", attrs...)
}
