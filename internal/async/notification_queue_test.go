package async

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverlode/fleetpanel/internal/notifier"
)

func TestQueueEnqueueAndDrain(t *testing.T) {
	q := NewNotificationQueue()

	q.EnqueueWebhook(notifier.WebhookRequest{URL: "https://example.com/hook", Event: "admin.created"})
	q.EnqueueTelegram(notifier.TelegramRequest{ChatID: 42, Message: "hello"})
	assert.Equal(t, 2, q.Pending())

	hooks := q.DrainWebhooks()
	require.Len(t, hooks, 1)
	assert.Equal(t, "admin.created", hooks[0].Event)

	msgs := q.DrainTelegrams()
	require.Len(t, msgs, 1)
	assert.EqualValues(t, 42, msgs[0].ChatID)

	assert.Equal(t, 0, q.Pending())
	assert.Empty(t, q.DrainWebhooks())
}

func TestQueueDropsInvalidRequests(t *testing.T) {
	q := NewNotificationQueue()
	q.EnqueueWebhook(notifier.WebhookRequest{URL: ""})
	q.EnqueueTelegram(notifier.TelegramRequest{ChatID: 0, Message: "x"})
	assert.Equal(t, 0, q.Pending())
}

func TestQueueClonesWebhookPayload(t *testing.T) {
	q := NewNotificationQueue()
	payload := map[string]any{"username": "alpha"}
	q.EnqueueWebhook(notifier.WebhookRequest{URL: "https://example.com", Payload: payload})

	// 入队后修改原 map 不应影响排队中的请求。
	payload["username"] = "mutated"

	hooks := q.DrainWebhooks()
	require.Len(t, hooks, 1)
	assert.Equal(t, "alpha", hooks[0].Payload["username"])
}

func TestQueueNotifierAdapter(t *testing.T) {
	q := NewNotificationQueue()
	svc := NewQueueNotifier(q)

	require.NoError(t, svc.SendWebhook(context.Background(), notifier.WebhookRequest{URL: "https://example.com", Event: "e"}))
	require.NoError(t, svc.SendTelegram(context.Background(), notifier.TelegramRequest{ChatID: 7, Message: "m"}))
	assert.Equal(t, 2, q.Pending())
}

func TestQueueRequeue(t *testing.T) {
	q := NewNotificationQueue()
	q.EnqueueWebhook(notifier.WebhookRequest{URL: "https://example.com"})

	hooks := q.DrainWebhooks()
	require.Len(t, hooks, 1)
	q.RequeueWebhook(hooks[0])
	assert.Equal(t, 1, q.Pending())
}
