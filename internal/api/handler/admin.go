// 文件路径: internal/api/handler/admin.go
// 模块说明: 这是 internal 模块里的管理员目录 HTTP 接口逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/silverlode/fleetpanel/internal/api/requestctx"
	"github.com/silverlode/fleetpanel/internal/service"
)

// AdminHandler 暴露管理员目录的 REST 接口。
type AdminHandler struct {
	Admins service.AdminService
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	op, ok := requestctx.GetOperator(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, fmt.Errorf("operator identity missing / 缺少操作者身份"))
		return
	}
	input := service.AdminListInput{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 0),
	}
	if username := r.URL.Query().Get("username"); username != "" {
		input.Username = &username
	}
	result, err := h.Admins.List(r.Context(), op, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	op, ok := requestctx.GetOperator(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, fmt.Errorf("operator identity missing / 缺少操作者身份"))
		return
	}
	view, err := h.Admins.Get(r.Context(), op, chi.URLParam(r, "username"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	op, ok := requestctx.GetOperator(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, fmt.Errorf("operator identity missing / 缺少操作者身份"))
		return
	}
	var input service.AdminCreateInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	view, err := h.Admins.Create(r.Context(), op, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *AdminHandler) Modify(w http.ResponseWriter, r *http.Request) {
	op, ok := requestctx.GetOperator(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, fmt.Errorf("operator identity missing / 缺少操作者身份"))
		return
	}
	var input service.AdminModifyInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	view, err := h.Admins.Modify(r.Context(), op, chi.URLParam(r, "username"), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *AdminHandler) Remove(w http.ResponseWriter, r *http.Request) {
	op, ok := requestctx.GetOperator(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, fmt.Errorf("operator identity missing / 缺少操作者身份"))
		return
	}
	if err := h.Admins.Remove(r.Context(), op, chi.URLParam(r, "username")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *AdminHandler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	op, ok := requestctx.GetOperator(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, fmt.Errorf("operator identity missing / 缺少操作者身份"))
		return
	}
	if err := h.Admins.ResetUsage(r.Context(), op, chi.URLParam(r, "username")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *AdminHandler) DisableUsers(w http.ResponseWriter, r *http.Request) {
	h.toggleUsers(w, r, true)
}

func (h *AdminHandler) ActivateUsers(w http.ResponseWriter, r *http.Request) {
	h.toggleUsers(w, r, false)
}

func (h *AdminHandler) toggleUsers(w http.ResponseWriter, r *http.Request, disable bool) {
	op, ok := requestctx.GetOperator(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, fmt.Errorf("operator identity missing / 缺少操作者身份"))
		return
	}
	username := chi.URLParam(r, "username")
	var affected int64
	var err error
	if disable {
		affected, err = h.Admins.DisableUsers(r.Context(), op, username)
	} else {
		affected, err = h.Admins.ActivateUsers(r.Context(), op, username)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"affected": affected})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
