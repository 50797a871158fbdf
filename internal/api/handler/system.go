// 文件路径: internal/api/handler/system.go
// 模块说明: 这是 internal 模块里的系统总览 HTTP 接口逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"net/http"
	"time"

	"github.com/silverlode/fleetpanel/internal/cache"
	"github.com/silverlode/fleetpanel/internal/service"
)

// SystemHandler 暴露系统总览接口，结果短暂缓存避免频繁采样主机指标。
type SystemHandler struct {
	System service.SystemService
	Cache  cache.Store
	TTL    time.Duration
}

const statsCacheKey = "system:stats"

func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	if h.Cache != nil {
		var cached service.SystemStats
		if found, err := h.Cache.GetJSON(r.Context(), statsCacheKey, &cached); err == nil && found {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}
	stats, err := h.System.Stats(r.Context(), op)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if h.Cache != nil {
		ttl := h.TTL
		if ttl <= 0 {
			ttl = 5 * time.Second
		}
		_ = h.Cache.SetJSON(r.Context(), statsCacheKey, stats, ttl)
	}
	respondJSON(w, http.StatusOK, stats)
}

// Health 简单探活，不鉴权。
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
