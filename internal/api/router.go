// 文件路径: internal/api/router.go
// 模块说明: 这是 internal 模块里的 router 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/silverlode/fleetpanel/internal/api/handler"
	"github.com/silverlode/fleetpanel/internal/api/middleware"
	"github.com/silverlode/fleetpanel/internal/auth/token"
	"github.com/silverlode/fleetpanel/internal/cache"
	"github.com/silverlode/fleetpanel/internal/config"
	"github.com/silverlode/fleetpanel/internal/security"
	"github.com/silverlode/fleetpanel/internal/service"
)

// Services 聚合路由层依赖的全部服务。
type Services struct {
	Admin  service.AdminService
	User   service.UserService
	Node   service.NodeService
	Usage  service.UsageService
	System service.SystemService
}

// Dependencies 聚合路由层依赖的基础设施。
type Dependencies struct {
	Config  *config.Config
	Logger  *slog.Logger
	Tokens  *token.Manager
	Cache   cache.Store
	Limiter *security.RateLimiter
	Audit   security.Recorder
}

// NewRouter 组装全部 HTTP 路由。
func NewRouter(svcs Services, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.StructuredLogger(middleware.LoggingConfig{
		Logger:        deps.Logger,
		SlowThreshold: 500 * time.Millisecond,
		SkipPaths:     []string{"/health", "/metrics"},
	}))

	if deps.Config != nil && deps.Config.Metrics.Enabled {
		metricsCfg := middleware.DefaultMetricsConfig()
		if deps.Config.Metrics.Namespace != "" {
			metricsCfg.Namespace = deps.Config.Metrics.Namespace
		}
		metrics := middleware.NewMetrics(metricsCfg)
		r.Use(metrics.Middleware(metricsCfg))
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	authHandler := &handler.AuthHandler{
		Admins:  svcs.Admin,
		Tokens:  deps.Tokens,
		Limiter: deps.Limiter,
		Audit:   deps.Audit,
	}
	if deps.Config != nil {
		authHandler.RateLimit = deps.Config.Auth.LoginRateLimit
		authHandler.RateWin = deps.Config.Auth.LoginRateWindow
	}
	adminHandler := &handler.AdminHandler{Admins: svcs.Admin}
	userHandler := &handler.UserHandler{Users: svcs.User, Usage: svcs.Usage}
	nodeHandler := &handler.NodeHandler{Nodes: svcs.Node, Usage: svcs.Usage}
	systemHandler := &handler.SystemHandler{System: svcs.System, Cache: deps.Cache}

	r.Get("/health", systemHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// 节点侧接口走 API key 守卫，每次请求都算一次心跳。
		r.Group(func(r chi.Router) {
			r.Use(middleware.NodeGuard(svcs.Node))
			r.Post("/node/heartbeat", nodeHandler.Heartbeat)
			r.Post("/node/usage", nodeHandler.ReportUsage)
		})

		// 管理侧接口走 JWT 守卫。
		r.Group(func(r chi.Router) {
			r.Use(middleware.OperatorGuard(deps.Tokens))

			r.Get("/system/stats", systemHandler.Stats)

			r.Route("/admins", func(r chi.Router) {
				r.Get("/", adminHandler.List)
				r.Post("/", adminHandler.Create)
				r.Get("/{username}", adminHandler.Get)
				r.Put("/{username}", adminHandler.Modify)
				r.Delete("/{username}", adminHandler.Remove)
				r.Post("/{username}/reset-usage", adminHandler.ResetUsage)
				r.Post("/{username}/disable-users", adminHandler.DisableUsers)
				r.Post("/{username}/activate-users", adminHandler.ActivateUsers)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Get("/{username}", userHandler.Get)
				r.Put("/{username}", userHandler.Modify)
				r.Delete("/{username}", userHandler.Remove)
				r.Post("/{username}/reset-usage", userHandler.ResetUsage)
				r.Post("/{username}/activate", userHandler.Activate)
				r.Get("/{username}/usage", userHandler.UsageByUser)
			})

			r.Route("/nodes", func(r chi.Router) {
				r.Get("/", nodeHandler.List)
				r.Get("/{id}", nodeHandler.Get)
				r.Delete("/{id}", nodeHandler.Remove)
				r.Post("/{id}/online", nodeHandler.MarkOnline)
				r.Post("/{id}/offline", nodeHandler.MarkOffline)

				// 注册需要 sudo，响应里带一次性 API key。
				r.With(middleware.SudoGuard()).Post("/", nodeHandler.Add)
			})
		})
	})

	return r
}
