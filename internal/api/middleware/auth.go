// 文件路径: internal/api/middleware/auth.go
// 模块说明: 这是 internal 模块里的 auth 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/silverlode/fleetpanel/internal/api/requestctx"
	"github.com/silverlode/fleetpanel/internal/auth/token"
	"github.com/silverlode/fleetpanel/internal/service"
)

// NodeResolver 把 API key 解析成节点 ID，由节点服务实现。
type NodeResolver interface {
	Heartbeat(ctx context.Context, apiKey string) (*service.NodeView, error)
}

// OperatorGuard ensures requests originate from authenticated admins.
func OperatorGuard(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				writeUnauthorized(w, "token manager unavailable")
				return
			}
			bearer := extractBearer(r.Header.Get("Authorization"))
			if bearer == "" {
				writeUnauthorized(w, "missing authorization header")
				return
			}
			claims, err := tokens.Parse(bearer)
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}
			op := service.Operator{Username: claims.Subject, IsSudo: claims.IsSudo}
			next.ServeHTTP(w, r.WithContext(requestctx.WithOperator(r.Context(), op)))
		})
	}
}

// SudoGuard 在 OperatorGuard 之后使用，拒绝非 sudo 操作者。
func SudoGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op, ok := requestctx.GetOperator(r.Context())
			if !ok {
				writeUnauthorized(w, "operator identity missing")
				return
			}
			if !op.IsSudo {
				writeForbidden(w, "sudo privileges required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NodeGuard ensures requests originate from registered nodes.
// 每次携带 API key 的请求同时当作一次心跳。
func NodeGuard(nodes NodeResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if nodes == nil {
				writeUnauthorized(w, "node registry unavailable")
				return
			}
			apiKey := strings.TrimSpace(r.Header.Get("X-Node-Key"))
			if apiKey == "" {
				writeUnauthorized(w, "missing node api key")
				return
			}
			node, err := nodes.Heartbeat(r.Context(), apiKey)
			if err != nil {
				writeUnauthorized(w, "unknown node api key")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithNodeID(r.Context(), node.ID)))
		})
	}
}

func extractBearer(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusForbidden, message)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
