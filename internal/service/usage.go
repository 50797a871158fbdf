// 文件路径: internal/service/usage.go
// 模块说明: 这是 internal 模块里的流量账本逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/silverlode/fleetpanel/internal/repository"
)

// UsageService 提供节点上报流量与用量查询的入口。
type UsageService interface {
	Record(ctx context.Context, input UsageRecordInput) error
	ByUser(ctx context.Context, op Operator, username string) ([]UsageEntry, error)
}

// UsageRecordInput 描述一次节点上报的流量增量。
type UsageRecordInput struct {
	Username string `json:"username"`
	NodeID   int64  `json:"node_id"`
	Uplink   int64  `json:"uplink"`
	Downlink int64  `json:"downlink"`
}

// UsageEntry 是某个用户在单个节点上的累计流量。
type UsageEntry struct {
	NodeID    int64  `json:"node_id"`
	NodeName  string `json:"node_name,omitempty"`
	Uplink    int64  `json:"uplink"`
	Downlink  int64  `json:"downlink"`
	UpdatedAt int64  `json:"updated_at"`
}

type usageService struct {
	users  repository.UserRepository
	admins repository.AdminRepository
	nodes  repository.NodeRepository
	usage  repository.UsageRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewUsageService 组装流量账本服务。
func NewUsageService(users repository.UserRepository, admins repository.AdminRepository, nodes repository.NodeRepository, usage repository.UsageRepository, logger *slog.Logger) UsageService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &usageService{users: users, admins: admins, nodes: nodes, usage: usage, logger: logger, now: time.Now}
}

// Record 在一个事务里同时累加用户、所属管理员和节点的计数。
// 首笔流量会顺带结束 on_hold 状态。
func (s *usageService) Record(ctx context.Context, input UsageRecordInput) error {
	if input.Uplink < 0 || input.Downlink < 0 {
		return fmt.Errorf("%w: traffic deltas must not be negative", ErrInvalidArgument)
	}
	user, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		return mapRepoError("user.get", err)
	}
	node, err := s.nodes.FindByID(ctx, input.NodeID)
	if err != nil {
		return mapRepoError("node.get", err)
	}
	activate := user.ActivatedAt == nil
	if err := s.usage.Record(ctx, user.ID, user.AdminID, node.ID, input.Uplink, input.Downlink, activate); err != nil {
		return mapRepoError("usage.record", err)
	}
	if activate {
		s.logger.InfoContext(ctx, "user activated by first traffic", "username", user.Username, "node_id", node.ID)
	}
	return nil
}

// ByUser 返回按节点拆分的累计流量，受"所有者或 sudo"限制。
func (s *usageService) ByUser(ctx context.Context, op Operator, username string) ([]UsageEntry, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, mapRepoError("user.get", err)
	}
	if !op.IsSudo {
		owner, err := s.admins.FindByUsername(ctx, op.Username)
		if err != nil {
			return nil, mapRepoError("admin.get", err)
		}
		if user.AdminID != owner.ID {
			return nil, ErrForbidden
		}
	}
	records, err := s.usage.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, mapRepoError("usage.list_by_user", err)
	}
	entries := make([]UsageEntry, 0, len(records))
	for _, rec := range records {
		entry := UsageEntry{NodeID: rec.NodeID, Uplink: rec.Uplink, Downlink: rec.Downlink, UpdatedAt: rec.UpdatedAt}
		if node, err := s.nodes.FindByID(ctx, rec.NodeID); err == nil {
			entry.NodeName = node.Name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
