// 文件路径: internal/job/node_heartbeat.go
// 模块说明: 这是 internal 模块里的节点心跳扫描逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/silverlode/fleetpanel/internal/service"
)

// NodeHeartbeatTask 周期性把心跳超时的在线节点标记为离线。
type NodeHeartbeatTask struct {
	nodes   service.NodeService
	silence time.Duration
	logger  *slog.Logger
}

// NewNodeHeartbeatTask 构造心跳扫描任务，silence 是判定离线的静默窗口。
func NewNodeHeartbeatTask(nodes service.NodeService, silence time.Duration, logger *slog.Logger) *NodeHeartbeatTask {
	if silence <= 0 {
		silence = 3 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeHeartbeatTask{nodes: nodes, silence: silence, logger: logger}
}

// Name 返回任务标识。
func (t *NodeHeartbeatTask) Name() string { return "node.heartbeat-sweep" }

// Run 扫描心跳静默的节点并标记离线。
func (t *NodeHeartbeatTask) Run(ctx context.Context) error {
	if t == nil || t.nodes == nil {
		return fmt.Errorf("heartbeat task dependencies not configured / 心跳任务依赖未配置")
	}
	swept, err := t.nodes.SweepSilent(ctx, t.silence)
	if err != nil {
		return err
	}
	if swept > 0 {
		t.logger.Info("nodes swept offline", "count", swept, "silence", t.silence)
	}
	return nil
}
