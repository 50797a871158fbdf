// 文件路径: internal/api/handler/auth.go
// 模块说明: 这是 internal 模块里的登录认证逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/silverlode/fleetpanel/internal/auth/token"
	"github.com/silverlode/fleetpanel/internal/security"
	"github.com/silverlode/fleetpanel/internal/service"
)

// AuthHandler 处理管理员登录并签发会话令牌。
type AuthHandler struct {
	Admins    service.AdminService
	Tokens    *token.Manager
	Limiter   *security.RateLimiter
	Audit     security.Recorder
	RateLimit int
	RateWin   time.Duration
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsSudo   bool   `json:"is_sudo"`
}

// Login 校验口令、限流并签发 JWT。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusUnprocessableEntity, fmt.Errorf("username and password are required / 用户名和密码不能为空"))
		return
	}

	ip := clientIP(r)
	if h.Limiter != nil {
		key := "login:" + ip
		result, err := h.Limiter.Allow(r.Context(), key, h.RateLimit, h.RateWin)
		if err == nil && !result.Allowed {
			respondError(w, http.StatusTooManyRequests, fmt.Errorf("too many login attempts / 登录尝试过于频繁"))
			return
		}
	}

	op, err := h.Admins.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if h.Audit != nil {
			h.Audit.Record(r.Context(), security.Event{Kind: "login.failed", ActorID: req.Username, IP: ip, UserAgent: r.UserAgent()})
		}
		respondError(w, http.StatusUnauthorized, fmt.Errorf("invalid credentials / 用户名或密码错误"))
		return
	}

	signed, _, err := h.Tokens.Issue(op.Username, op.IsSudo)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if h.Audit != nil {
		h.Audit.Record(r.Context(), security.Event{Kind: "login.succeeded", ActorID: op.Username, IP: ip, UserAgent: r.UserAgent()})
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: signed, Username: op.Username, IsSudo: op.IsSudo})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
