// 文件路径: internal/bootstrap/server.go
// 模块说明: 这是 internal 模块里的 HTTP 服务构建逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package bootstrap

import (
	"net/http"
	"time"

	"github.com/silverlode/fleetpanel/internal/config"
)

// NewHTTPServer 构建带保守超时的 http.Server。
// 写超时放宽到 30 秒，覆盖大分页的用户列表导出。
func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	addr := ":8080"
	if cfg != nil && cfg.HTTP.Addr != "" {
		addr = cfg.HTTP.Addr
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
}
