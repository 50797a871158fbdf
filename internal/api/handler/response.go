// 文件路径: internal/api/handler/response.go
// 模块说明: 这是 internal 模块里的响应工具逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/silverlode/fleetpanel/internal/service"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response JSON", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]any{"error": err.Error()})
}

// respondServiceError 把服务层哨兵错误翻译成 HTTP 状态码。
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, service.ErrConflict):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, err)
	case errors.Is(err, service.ErrInvalidArgument):
		respondError(w, http.StatusUnprocessableEntity, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}
