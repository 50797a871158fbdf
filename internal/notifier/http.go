// 文件路径: internal/notifier/http.go
// 模块说明: 这是 internal 模块里的 HTTP 通知发送逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// HTTPService 通过真实 HTTP 请求发送 webhook 与 Telegram 通知，失败时指数退避重试。
type HTTPService struct {
	client        *http.Client
	logger        *slog.Logger
	telegramToken string
	maxElapsed    time.Duration
}

// HTTPServiceOption 配置 HTTPService。
type HTTPServiceOption func(*HTTPService)

// WithHTTPClient 替换默认的 HTTP 客户端，测试时注入假客户端用。
func WithHTTPClient(client *http.Client) HTTPServiceOption {
	return func(s *HTTPService) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTelegramToken 设置机器人令牌，空值时 Telegram 通道退化为仅记日志。
func WithTelegramToken(token string) HTTPServiceOption {
	return func(s *HTTPService) { s.telegramToken = token }
}

// WithMaxElapsed 限制单条通知的重试总时长。
func WithMaxElapsed(d time.Duration) HTTPServiceOption {
	return func(s *HTTPService) {
		if d > 0 {
			s.maxElapsed = d
		}
	}
}

// NewHTTPService 创建基于 net/http 的通知服务。
func NewHTTPService(logger *slog.Logger, opts ...HTTPServiceOption) *HTTPService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &HTTPService{
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		maxElapsed: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendWebhook 以 JSON POST 推送事件，非 2xx 触发退避重试。
func (s *HTTPService) SendWebhook(ctx context.Context, req WebhookRequest) error {
	if req.URL == "" {
		return fmt.Errorf("webhook url is required / 回调地址不能为空")
	}
	body, err := json.Marshal(map[string]any{
		"event":   req.Event,
		"payload": req.Payload,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	return s.post(ctx, req.URL, "application/json", body)
}

// SendTelegram 调用 Bot API sendMessage，未配置令牌时只记录日志。
func (s *HTTPService) SendTelegram(ctx context.Context, req TelegramRequest) error {
	if req.ChatID == 0 {
		return fmt.Errorf("telegram chat_id is required / Telegram chat_id 不能为空")
	}
	if s.telegramToken == "" {
		s.logger.InfoContext(ctx, "telegram token missing, dropping notification", "chat_id", req.ChatID)
		return nil
	}
	body, err := json.Marshal(map[string]any{
		"chat_id":    strconv.FormatInt(req.ChatID, 10),
		"text":       req.Message,
		"parse_mode": req.ParseMode,
	})
	if err != nil {
		return fmt.Errorf("encode telegram payload: %w", err)
	}
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.telegramToken)
	return s.post(ctx, endpoint, "application/json", body)
}

func (s *HTTPService) post(ctx context.Context, url, contentType string, body []byte) error {
	attempt := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", contentType)
		resp, err := s.client.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		err = fmt.Errorf("notification endpoint returned %d / 通知端点返回 %d", resp.StatusCode, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = s.maxElapsed
	return backoff.Retry(attempt, backoff.WithContext(policy, ctx))
}
