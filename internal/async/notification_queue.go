// 文件路径: internal/async/notification_queue.go
// 模块说明: 这是 internal 模块里的 notification_queue 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package async

import (
	"sync"

	"github.com/silverlode/fleetpanel/internal/notifier"
)

// NotificationQueue buffers outbound webhook & telegram tasks for background dispatch.
type NotificationQueue struct {
	mu        sync.Mutex
	webhooks  []notifier.WebhookRequest
	telegrams []notifier.TelegramRequest
}

// NewNotificationQueue returns an empty notification queue instance.
func NewNotificationQueue() *NotificationQueue {
	return &NotificationQueue{
		webhooks:  make([]notifier.WebhookRequest, 0),
		telegrams: make([]notifier.TelegramRequest, 0),
	}
}

// EnqueueWebhook appends a pending webhook request.
func (q *NotificationQueue) EnqueueWebhook(req notifier.WebhookRequest) {
	if q == nil || req.URL == "" {
		return
	}
	q.mu.Lock()
	q.webhooks = append(q.webhooks, cloneWebhookRequest(req))
	q.mu.Unlock()
}

// EnqueueTelegram appends a pending telegram message.
func (q *NotificationQueue) EnqueueTelegram(req notifier.TelegramRequest) {
	if q == nil || req.ChatID == 0 {
		return
	}
	q.mu.Lock()
	q.telegrams = append(q.telegrams, req)
	q.mu.Unlock()
}

// DrainWebhooks returns all pending webhook requests and clears the buffer.
func (q *NotificationQueue) DrainWebhooks() []notifier.WebhookRequest {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.webhooks
	q.webhooks = make([]notifier.WebhookRequest, 0)
	return drained
}

// DrainTelegrams returns all pending telegram messages and clears the buffer.
func (q *NotificationQueue) DrainTelegrams() []notifier.TelegramRequest {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.telegrams
	q.telegrams = make([]notifier.TelegramRequest, 0)
	return drained
}

// RequeueWebhook puts a failed webhook request back for the next dispatch round.
func (q *NotificationQueue) RequeueWebhook(req notifier.WebhookRequest) {
	q.EnqueueWebhook(req)
}

// RequeueTelegram puts a failed telegram message back for the next dispatch round.
func (q *NotificationQueue) RequeueTelegram(req notifier.TelegramRequest) {
	q.EnqueueTelegram(req)
}

// Pending reports buffered notification tasks of both kinds.
func (q *NotificationQueue) Pending() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.webhooks) + len(q.telegrams)
}

func cloneWebhookRequest(req notifier.WebhookRequest) notifier.WebhookRequest {
	cloned := req
	if req.Payload != nil {
		cloned.Payload = make(map[string]any, len(req.Payload))
		for k, v := range req.Payload {
			cloned.Payload[k] = v
		}
	}
	return cloned
}
