// 文件路径: internal/api/handler/user.go
// 模块说明: 这是 internal 模块里的用户 HTTP 接口逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/silverlode/fleetpanel/internal/api/requestctx"
	"github.com/silverlode/fleetpanel/internal/repository"
	"github.com/silverlode/fleetpanel/internal/service"
)

// UserHandler 暴露用户生命周期的 REST 接口。
type UserHandler struct {
	Users service.UserService
	Usage service.UsageService
}

const defaultPageSize = 50

func operatorOrFail(w http.ResponseWriter, r *http.Request) (service.Operator, bool) {
	op, ok := requestctx.GetOperator(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, fmt.Errorf("operator identity missing / 缺少操作者身份"))
	}
	return op, ok
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	input := service.UserListInput{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", defaultPageSize),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := repository.UserStatus(status)
		input.Status = &s
	}
	if admin := r.URL.Query().Get("admin"); admin != "" {
		input.Admin = &admin
	}
	result, err := h.Users.List(r.Context(), op, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	view, err := h.Users.Get(r.Context(), op, chi.URLParam(r, "username"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	var input service.UserCreateInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	view, err := h.Users.Create(r.Context(), op, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *UserHandler) Modify(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	var input service.UserModifyInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	view, err := h.Users.Modify(r.Context(), op, chi.URLParam(r, "username"), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *UserHandler) Remove(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	if err := h.Users.Remove(r.Context(), op, chi.URLParam(r, "username")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *UserHandler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	if err := h.Users.ResetUsage(r.Context(), op, chi.URLParam(r, "username")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	view, err := h.Users.Activate(r.Context(), op, chi.URLParam(r, "username"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// UsageByUser 返回按节点拆分的累计流量。
func (h *UserHandler) UsageByUser(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	entries, err := h.Usage.ByUser(r.Context(), op, chi.URLParam(r, "username"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"usage": entries})
}
