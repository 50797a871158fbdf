// 文件路径: internal/api/middleware/logging.go
// 模块说明: 这是 internal 模块里的请求日志中间件，下面的注释会用非常通俗的中文帮你理解每一步。
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// LoggingConfig 控制结构化请求日志的行为。
type LoggingConfig struct {
	Logger        *slog.Logger
	SlowThreshold time.Duration // 超过该耗时的请求以 WARN 记录
	SkipPaths     []string      // 不记录日志的路径，比如健康检查和指标抓取
}

// StructuredLogger 为每个请求写一条结构化访问日志。
// 日志级别按响应状态分层：5xx 记 ERROR，4xx 记 WARN，慢请求也记 WARN。
func StructuredLogger(cfg LoggingConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = 500 * time.Millisecond
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			started := time.Now()
			requestID := chiMiddleware.GetReqID(r.Context())

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			if requestID != "" {
				ww.Header().Set("X-Request-ID", requestID)
			}

			next.ServeHTTP(ww, r)

			elapsed := time.Since(started)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", elapsed),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("bytes", ww.BytesWritten()),
			}
			if query := r.URL.RawQuery; query != "" {
				attrs = append(attrs, slog.String("query", query))
			}

			level := slog.LevelInfo
			msg := "request completed"
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
				msg = "request failed"
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
				msg = "request rejected"
			case elapsed > slow:
				level = slog.LevelWarn
				msg = "slow request"
			}

			logger.LogAttrs(r.Context(), level, msg, attrs...)
		})
	}
}
