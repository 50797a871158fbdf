// 文件路径: internal/api/handler/node.go
// 模块说明: 这是 internal 模块里的节点 HTTP 接口逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/silverlode/fleetpanel/internal/api/requestctx"
	"github.com/silverlode/fleetpanel/internal/service"
)

// NodeHandler 暴露节点注册表的管理接口与节点侧上报接口。
type NodeHandler struct {
	Nodes service.NodeService
	Usage service.UsageService
}

func (h *NodeHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := operatorOrFail(w, r); !ok {
		return
	}
	views, err := h.Nodes.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"nodes": views})
}

func (h *NodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := operatorOrFail(w, r); !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	view, err := h.Nodes.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Add 注册节点，响应里带着一次性下发的 API key。
func (h *NodeHandler) Add(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	var input service.NodeAddInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	view, err := h.Nodes.Add(r.Context(), op, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *NodeHandler) Remove(w http.ResponseWriter, r *http.Request) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Nodes.Remove(r.Context(), op, id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *NodeHandler) MarkOnline(w http.ResponseWriter, r *http.Request) {
	h.toggleOnline(w, r, true)
}

func (h *NodeHandler) MarkOffline(w http.ResponseWriter, r *http.Request) {
	h.toggleOnline(w, r, false)
}

func (h *NodeHandler) toggleOnline(w http.ResponseWriter, r *http.Request, online bool) {
	op, ok := operatorOrFail(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if online {
		err = h.Nodes.MarkOnline(r.Context(), op, id)
	} else {
		err = h.Nodes.MarkOffline(r.Context(), op, id)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Heartbeat 由节点守卫完成认证与心跳，这里只回显身份。
func (h *NodeHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := requestctx.GetNodeID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, fmt.Errorf("node identity missing / 缺少节点身份"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"node_id": nodeID, "status": "online"})
}

type usageReport struct {
	Entries []usageReportEntry `json:"entries"`
}

type usageReportEntry struct {
	Username string `json:"username"`
	Uplink   int64  `json:"uplink"`
	Downlink int64  `json:"downlink"`
}

// ReportUsage 接收节点批量上报的用户流量增量。
// 未知用户不会中断整批，逐条记录失败计数。
func (h *NodeHandler) ReportUsage(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := requestctx.GetNodeID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, fmt.Errorf("node identity missing / 缺少节点身份"))
		return
	}
	var report usageReport
	if err := decodeJSON(r, &report); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	accepted, failed := 0, 0
	for _, entry := range report.Entries {
		err := h.Usage.Record(r.Context(), service.UsageRecordInput{
			Username: entry.Username,
			NodeID:   nodeID,
			Uplink:   entry.Uplink,
			Downlink: entry.Downlink,
		})
		if err != nil {
			failed++
			continue
		}
		accepted++
	}
	respondJSON(w, http.StatusOK, map[string]int{"accepted": accepted, "failed": failed})
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid node id %q / 非法的节点 ID", raw)
	}
	return id, nil
}
