// 文件路径: internal/service/node.go
// 模块说明: 这是 internal 模块里的节点注册逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/silverlode/fleetpanel/internal/repository"
)

// NodeService 提供节点注册表的管理与心跳入口。
type NodeService interface {
	Get(ctx context.Context, id int64) (*NodeView, error)
	List(ctx context.Context) ([]NodeView, error)
	Add(ctx context.Context, op Operator, input NodeAddInput) (*NodeView, error)
	Remove(ctx context.Context, op Operator, id int64) error
	MarkOnline(ctx context.Context, op Operator, id int64) error
	MarkOffline(ctx context.Context, op Operator, id int64) error
	Heartbeat(ctx context.Context, apiKey string) (*NodeView, error)
	SweepSilent(ctx context.Context, silence time.Duration) (int, error)
}

// NodeAddInput 描述注册节点的字段。
type NodeAddInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// NodeView 对齐 API 返回的节点结构，APIKey 只在注册时返回一次。
type NodeView struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	Port          int    `json:"port"`
	APIKey        string `json:"api_key,omitempty"`
	IsOnline      bool   `json:"is_online"`
	LastSeenAt    int64  `json:"last_seen_at"`
	UplinkBytes   int64  `json:"uplink_bytes"`
	DownlinkBytes int64  `json:"downlink_bytes"`
	CreatedAt     int64  `json:"created_at"`
}

type nodeService struct {
	nodes  repository.NodeRepository
	logger *slog.Logger
	now    func() time.Time
	newKey func() string
}

// NewNodeService 组装节点注册表服务。
func NewNodeService(nodes repository.NodeRepository, logger *slog.Logger) NodeService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &nodeService{nodes: nodes, logger: logger, now: time.Now, newKey: uuid.NewString}
}

func (s *nodeService) Get(ctx context.Context, id int64) (*NodeView, error) {
	node, err := s.nodes.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("node.get", err)
	}
	return nodeView(node, false), nil
}

func (s *nodeService) List(ctx context.Context) ([]NodeView, error) {
	nodes, err := s.nodes.List(ctx)
	if err != nil {
		return nil, mapRepoError("node.list", err)
	}
	views := make([]NodeView, 0, len(nodes))
	for _, node := range nodes {
		views = append(views, *nodeView(node, false))
	}
	return views, nil
}

// Add 注册新节点并签发 API key，地址加端口重复会报冲突。
func (s *nodeService) Add(ctx context.Context, op Operator, input NodeAddInput) (*NodeView, error) {
	if !op.IsSudo {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	address := strings.TrimSpace(input.Address)
	if name == "" || address == "" {
		return nil, fmt.Errorf("%w: name and address are required", ErrInvalidArgument)
	}
	if input.Port < 1 || input.Port > 65535 {
		return nil, fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidArgument)
	}
	node := &repository.Node{
		Name:      name,
		Address:   address,
		Port:      input.Port,
		APIKey:    s.newKey(),
		CreatedAt: s.now().Unix(),
	}
	if _, err := s.nodes.Create(ctx, node); err != nil {
		return nil, mapRepoError("node.create", err)
	}
	s.logger.InfoContext(ctx, "node registered", "name", name, "address", address, "port", input.Port, "operator", op.Username)
	return nodeView(node, true), nil
}

func (s *nodeService) Remove(ctx context.Context, op Operator, id int64) error {
	if !op.IsSudo {
		return ErrForbidden
	}
	if err := s.nodes.Delete(ctx, id); err != nil {
		return mapRepoError("node.delete", err)
	}
	s.logger.InfoContext(ctx, "node removed", "node_id", id, "operator", op.Username)
	return nil
}

// MarkOnline 人工标记节点在线，重复调用幂等。
func (s *nodeService) MarkOnline(ctx context.Context, op Operator, id int64) error {
	if !op.IsSudo {
		return ErrForbidden
	}
	if err := s.nodes.SetOnline(ctx, id, true, s.now().Unix()); err != nil {
		return mapRepoError("node.set_online", err)
	}
	return nil
}

// MarkOffline 人工标记节点离线，保留最后一次在线时间。
func (s *nodeService) MarkOffline(ctx context.Context, op Operator, id int64) error {
	if !op.IsSudo {
		return ErrForbidden
	}
	if err := s.nodes.SetOnline(ctx, id, false, s.now().Unix()); err != nil {
		return mapRepoError("node.set_online", err)
	}
	return nil
}

// Heartbeat 处理节点自报平安，依据 API key 识别身份。
func (s *nodeService) Heartbeat(ctx context.Context, apiKey string) (*NodeView, error) {
	node, err := s.nodes.FindByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, mapRepoError("node.get_by_key", err)
	}
	if err := s.nodes.SetOnline(ctx, node.ID, true, s.now().Unix()); err != nil {
		return nil, mapRepoError("node.set_online", err)
	}
	node.IsOnline = true
	return nodeView(node, false), nil
}

// SweepSilent 把超过静默窗口没有心跳的在线节点标记为离线，由定时任务调用。
func (s *nodeService) SweepSilent(ctx context.Context, silence time.Duration) (int, error) {
	cutoff := s.now().Add(-silence).Unix()
	stale, err := s.nodes.ListOnlineSilentSince(ctx, cutoff)
	if err != nil {
		return 0, mapRepoError("node.list_silent", err)
	}
	swept := 0
	for _, node := range stale {
		if err := s.nodes.SetOnline(ctx, node.ID, false, s.now().Unix()); err != nil {
			s.logger.WarnContext(ctx, "mark silent node offline failed", "node_id", node.ID, "error", err)
			continue
		}
		swept++
	}
	if swept > 0 {
		s.logger.InfoContext(ctx, "silent nodes marked offline", "count", swept)
	}
	return swept, nil
}

func nodeView(node *repository.Node, withKey bool) *NodeView {
	view := &NodeView{
		ID:            node.ID,
		Name:          node.Name,
		Address:       node.Address,
		Port:          node.Port,
		IsOnline:      node.IsOnline,
		LastSeenAt:    node.LastSeenAt,
		UplinkBytes:   node.UplinkBytes,
		DownlinkBytes: node.DownlinkBytes,
		CreatedAt:     node.CreatedAt,
	}
	if withKey {
		view.APIKey = node.APIKey
	}
	return view
}
