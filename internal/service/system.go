// 文件路径: internal/service/system.go
// 模块说明: 这是 internal 模块里的系统总览逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/silverlode/fleetpanel/internal/repository"
)

// SystemService 汇总主机指标与业务计数，供总览接口使用。
type SystemService interface {
	Stats(ctx context.Context, op Operator) (*SystemStats, error)
}

// HostStats 是一次主机指标采样。
type HostStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	CPUCores   int     `json:"cpu_cores"`
	MemTotal   uint64  `json:"mem_total"`
	MemUsed    uint64  `json:"mem_used"`
}

// SystemStats 对齐总览接口的返回结构，所有业务计数来自同一个快照。
type SystemStats struct {
	Host HostStats `json:"host"`

	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	OnHoldUsers   int64 `json:"on_hold_users"`
	LimitedUsers  int64 `json:"limited_users"`
	ExpiredUsers  int64 `json:"expired_users"`
	DisabledUsers int64 `json:"disabled_users"`

	IncomingBandwidth int64 `json:"incoming_bandwidth"`
	OutgoingBandwidth int64 `json:"outgoing_bandwidth"`

	NodesTotal  int64 `json:"nodes_total"`
	NodesOnline int64 `json:"nodes_online"`
	TotalAdmins int64 `json:"total_admins"`
}

// HostStatsFunc 采集主机指标，测试时注入假实现。
type HostStatsFunc func(ctx context.Context) (HostStats, error)

type systemService struct {
	stats     repository.StatsRepository
	hostStats HostStatsFunc
	logger    *slog.Logger
	now       func() int64
}

// NewSystemService 组装系统总览服务。hostStats 为 nil 时使用 gopsutil 采集。
func NewSystemService(stats repository.StatsRepository, hostStats HostStatsFunc, logger *slog.Logger, now func() int64) SystemService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if hostStats == nil {
		hostStats = collectHostStats
	}
	return &systemService{stats: stats, hostStats: hostStats, logger: logger, now: now}
}

// Stats 返回总览数据。业务计数在单个事务快照里读出，
// 保证各状态人数加起来等于总人数。
func (s *systemService) Stats(ctx context.Context, op Operator) (*SystemStats, error) {
	snapshot, err := s.stats.Snapshot(ctx, s.now())
	if err != nil {
		return nil, mapRepoError("stats.snapshot", err)
	}
	host, err := s.hostStats(ctx)
	if err != nil {
		return nil, &StorageError{Op: "stats.host", Err: err}
	}
	return &SystemStats{
		Host:              host,
		TotalUsers:        snapshot.Users.Total,
		ActiveUsers:       snapshot.Users.Active,
		OnHoldUsers:       snapshot.Users.OnHold,
		LimitedUsers:      snapshot.Users.Limited,
		ExpiredUsers:      snapshot.Users.Expired,
		DisabledUsers:     snapshot.Users.Disabled,
		IncomingBandwidth: snapshot.Bandwidth.Incoming,
		OutgoingBandwidth: snapshot.Bandwidth.Outgoing,
		NodesTotal:        snapshot.NodesTotal,
		NodesOnline:       snapshot.NodesOnline,
		TotalAdmins:       snapshot.AdminsTotal,
	}, nil
}

// collectHostStats 用 gopsutil 读取 CPU 与内存指标。
func collectHostStats(ctx context.Context) (HostStats, error) {
	stats := HostStats{}
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return stats, err
	}
	stats.CPUCores = cores
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, err
	}
	stats.MemTotal = vm.Total
	stats.MemUsed = vm.Used
	return stats, nil
}
