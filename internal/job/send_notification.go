// 文件路径: internal/job/send_notification.go
// 模块说明: 这是 internal 模块里的 send_notification 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/silverlode/fleetpanel/internal/async"
	"github.com/silverlode/fleetpanel/internal/notifier"
)

// SendWebhookTask 处理 webhook 通知队列。
type SendWebhookTask struct {
	Queue    *async.NotificationQueue
	Notifier notifier.Service
	Logger   *slog.Logger
}

// NewSendWebhookTask 构造 webhook 通知任务。
func NewSendWebhookTask(queue *async.NotificationQueue, svc notifier.Service, logger *slog.Logger) *SendWebhookTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendWebhookTask{Queue: queue, Notifier: svc, Logger: logger}
}

// Name 返回任务标识。
func (t *SendWebhookTask) Name() string { return "notify.webhook" }

// Run 逐条投递 webhook，失败的请求放回队列等下一轮。
func (t *SendWebhookTask) Run(ctx context.Context) error {
	if t == nil || t.Queue == nil || t.Notifier == nil {
		return fmt.Errorf("webhook notification task dependencies not configured / webhook 通知任务依赖未配置")
	}
	requests := t.Queue.DrainWebhooks()
	if len(requests) == 0 {
		return nil
	}
	for _, req := range requests {
		if err := t.Notifier.SendWebhook(ctx, req); err != nil {
			if errors.Is(err, notifier.ErrNotImplemented) {
				t.Logger.Warn("webhook notification not delivered", "reason", err)
				continue
			}
			t.Queue.RequeueWebhook(req)
			return err
		}
	}
	t.Logger.Debug("webhook notifications sent", "count", len(requests))
	return nil
}

// SendTelegramTask 处理 Telegram 通知队列。
type SendTelegramTask struct {
	Queue    *async.NotificationQueue
	Notifier notifier.Service
	Logger   *slog.Logger
}

// NewSendTelegramTask 构造 Telegram 通知任务。
func NewSendTelegramTask(queue *async.NotificationQueue, svc notifier.Service, logger *slog.Logger) *SendTelegramTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendTelegramTask{Queue: queue, Notifier: svc, Logger: logger}
}

// Name 返回任务标识。
func (t *SendTelegramTask) Name() string { return "notify.telegram" }

// Run 逐条投递 Telegram 消息，失败的消息放回队列等下一轮。
func (t *SendTelegramTask) Run(ctx context.Context) error {
	if t == nil || t.Queue == nil || t.Notifier == nil {
		return fmt.Errorf("telegram notification task dependencies not configured / Telegram 通知任务依赖未配置")
	}
	messages := t.Queue.DrainTelegrams()
	if len(messages) == 0 {
		return nil
	}
	for _, req := range messages {
		if err := t.Notifier.SendTelegram(ctx, req); err != nil {
			if errors.Is(err, notifier.ErrNotImplemented) {
				t.Logger.Warn("telegram notification not delivered", "reason", err)
				continue
			}
			t.Queue.RequeueTelegram(req)
			return err
		}
	}
	t.Logger.Debug("telegram notifications sent", "count", len(messages))
	return nil
}
