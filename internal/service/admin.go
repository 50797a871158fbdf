// 文件路径: internal/service/admin.go
// 模块说明: 这是 internal 模块里的管理员目录逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/silverlode/fleetpanel/internal/notifier"
	"github.com/silverlode/fleetpanel/internal/repository"
	"github.com/silverlode/fleetpanel/internal/support/hash"
)

// AdminService 提供管理员目录的增删改查与授权判断。
type AdminService interface {
	Get(ctx context.Context, op Operator, username string) (*AdminView, error)
	List(ctx context.Context, op Operator, input AdminListInput) (*AdminListResult, error)
	Create(ctx context.Context, op Operator, input AdminCreateInput) (*AdminView, error)
	Modify(ctx context.Context, op Operator, username string, input AdminModifyInput) (*AdminView, error)
	Remove(ctx context.Context, op Operator, username string) error
	ResetUsage(ctx context.Context, op Operator, username string) error
	Authenticate(ctx context.Context, username, password string) (*Operator, error)
	DisableUsers(ctx context.Context, op Operator, username string) (int64, error)
	ActivateUsers(ctx context.Context, op Operator, username string) (int64, error)
}

// AdminListInput 控制管理员列表的筛选与分页。
type AdminListInput struct {
	Username *string
	Offset   int
	Limit    int
}

// AdminListResult 包装分页管理员列表。
type AdminListResult struct {
	Admins []AdminView `json:"admins"`
	Total  int64       `json:"total"`
}

// AdminCreateInput 描述新建管理员的字段。
type AdminCreateInput struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	IsSudo     bool   `json:"is_sudo"`
	TelegramID *int64 `json:"telegram_id,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

// AdminModifyInput 描述可修改的管理员字段，nil 表示保持不变。
type AdminModifyInput struct {
	Password   *string `json:"password,omitempty"`
	IsSudo     *bool   `json:"is_sudo,omitempty"`
	IsDisabled *bool   `json:"is_disabled,omitempty"`
	TelegramID *int64  `json:"telegram_id,omitempty"`
	WebhookURL *string `json:"webhook_url,omitempty"`
}

// AdminView 对齐 API 返回的管理员结构，绝不携带口令哈希。
type AdminView struct {
	Username    string `json:"username"`
	IsSudo      bool   `json:"is_sudo"`
	IsDisabled  bool   `json:"is_disabled"`
	UsedTraffic int64  `json:"used_traffic"`
	TelegramID  *int64 `json:"telegram_id"`
	WebhookURL  string `json:"webhook_url,omitempty"`
	UsersCount  int64  `json:"users_count"`
	CreatedAt   int64  `json:"created_at"`
}

type adminService struct {
	admins   repository.AdminRepository
	users    repository.UserRepository
	hasher   hash.Hasher
	notifier notifier.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewAdminService 组装管理员目录服务。notify 允许为 nil，表示不发通知。
func NewAdminService(admins repository.AdminRepository, users repository.UserRepository, hasher hash.Hasher, notify notifier.Service, logger *slog.Logger) AdminService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &adminService{
		admins:   admins,
		users:    users,
		hasher:   hasher,
		notifier: notify,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *adminService) Get(ctx context.Context, op Operator, username string) (*AdminView, error) {
	if !op.CanManage(username) {
		return nil, ErrForbidden
	}
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		return nil, mapRepoError("admin.get", err)
	}
	return s.view(ctx, admin), nil
}

func (s *adminService) List(ctx context.Context, op Operator, input AdminListInput) (*AdminListResult, error) {
	if input.Offset < 0 || input.Limit < 0 {
		return nil, fmt.Errorf("%w: offset and limit must not be negative", ErrInvalidArgument)
	}
	filter := repository.AdminFilter{Username: input.Username, Offset: input.Offset, Limit: input.Limit}
	if !op.IsSudo {
		// 非 sudo 只能看到自己的账号。
		own := op.Username
		filter.Username = &own
	}
	total, err := s.admins.Count(ctx, filter)
	if err != nil {
		return nil, mapRepoError("admin.count", err)
	}
	result := &AdminListResult{Admins: make([]AdminView, 0), Total: total}
	admins, err := s.admins.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError("admin.list", err)
	}
	for _, admin := range admins {
		result.Admins = append(result.Admins, *s.view(ctx, admin))
	}
	return result, nil
}

func (s *adminService) Create(ctx context.Context, op Operator, input AdminCreateInput) (*AdminView, error) {
	if !op.IsSudo {
		return nil, ErrForbidden
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	if input.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidArgument)
	}
	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	admin := &repository.Admin{
		Username:     username,
		PasswordHash: hashed,
		IsSudo:       input.IsSudo,
		TelegramID:   input.TelegramID,
		WebhookURL:   strings.TrimSpace(input.WebhookURL),
		CreatedAt:    s.now().Unix(),
	}
	if _, err := s.admins.Create(ctx, admin); err != nil {
		return nil, mapRepoError("admin.create", err)
	}
	s.logger.InfoContext(ctx, "admin created", "username", username, "sudo", input.IsSudo, "operator", op.Username)
	s.notify(ctx, admin, "admin.created", fmt.Sprintf("admin %s created by %s", username, op.Username))
	return s.view(ctx, admin), nil
}

func (s *adminService) Modify(ctx context.Context, op Operator, username string, input AdminModifyInput) (*AdminView, error) {
	if !op.CanManage(username) {
		return nil, ErrForbidden
	}
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		return nil, mapRepoError("admin.get", err)
	}
	// 修改其它 sudo 账号只有系统身份可以做，防止平级互踢。
	if admin.IsSudo && op.Username != username && !op.IsSystem() {
		return nil, ErrForbidden
	}
	if input.IsSudo != nil && !op.IsSudo {
		return nil, ErrForbidden
	}
	if input.IsDisabled != nil && !op.IsSudo {
		return nil, ErrForbidden
	}
	// 自己改自己只放开口令等字段，权限位要系统身份来动。
	if op.Username == username && !op.IsSystem() && (input.IsSudo != nil || input.IsDisabled != nil) {
		return nil, ErrForbidden
	}
	if admin.Username == SystemOperator.Username && (input.IsSudo != nil || input.IsDisabled != nil) {
		return nil, ErrForbidden
	}
	if input.Password != nil {
		if *input.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", ErrInvalidArgument)
		}
		hashed, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		admin.PasswordHash = hashed
	}
	if input.IsSudo != nil {
		admin.IsSudo = *input.IsSudo
	}
	if input.IsDisabled != nil {
		admin.IsDisabled = *input.IsDisabled
	}
	if input.TelegramID != nil {
		admin.TelegramID = input.TelegramID
	}
	if input.WebhookURL != nil {
		admin.WebhookURL = strings.TrimSpace(*input.WebhookURL)
	}
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, mapRepoError("admin.update", err)
	}
	s.logger.InfoContext(ctx, "admin modified", "username", username, "operator", op.Username)
	s.notify(ctx, admin, "admin.modified", fmt.Sprintf("admin %s modified by %s", username, op.Username))
	return s.view(ctx, admin), nil
}

func (s *adminService) Remove(ctx context.Context, op Operator, username string) error {
	if !op.CanManage(username) {
		return ErrForbidden
	}
	if username == SystemOperator.Username {
		return ErrForbidden
	}
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		return mapRepoError("admin.get", err)
	}
	if admin.IsSudo {
		sudoCount, err := s.admins.CountSudo(ctx)
		if err != nil {
			return mapRepoError("admin.count_sudo", err)
		}
		if sudoCount <= 1 {
			return ErrForbidden
		}
	}
	// 名下还有用户的账号不能直接删，避免撞上外键后返回存储错误。
	ownerID := admin.ID
	owned, err := s.users.Count(ctx, repository.UserFilter{AdminID: &ownerID})
	if err != nil {
		return mapRepoError("user.count", err)
	}
	if owned > 0 {
		return fmt.Errorf("%w: admin %s still owns %d users", ErrConflict, username, owned)
	}
	if err := s.admins.Delete(ctx, admin.ID); err != nil {
		return mapRepoError("admin.delete", err)
	}
	s.logger.InfoContext(ctx, "admin removed", "username", username, "operator", op.Username)
	s.notify(ctx, admin, "admin.removed", fmt.Sprintf("admin %s removed by %s", username, op.Username))
	return nil
}

func (s *adminService) ResetUsage(ctx context.Context, op Operator, username string) error {
	if !op.CanManage(username) {
		return ErrForbidden
	}
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		return mapRepoError("admin.get", err)
	}
	if err := s.admins.ResetUsage(ctx, admin.ID); err != nil {
		return mapRepoError("admin.reset_usage", err)
	}
	s.logger.InfoContext(ctx, "admin usage reset", "username", username, "operator", op.Username)
	return nil
}

// Authenticate 校验口令并返回操作者身份，禁用账号一律拒绝。
func (s *adminService) Authenticate(ctx context.Context, username, password string) (*Operator, error) {
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		return nil, mapRepoError("admin.get", err)
	}
	if admin.IsDisabled {
		return nil, ErrForbidden
	}
	if admin.PasswordHash == "" {
		// 系统保底账号没有口令，不允许走登录通道。
		return nil, ErrForbidden
	}
	if err := s.hasher.Compare(admin.PasswordHash, password); err != nil {
		return nil, ErrForbidden
	}
	return &Operator{Username: admin.Username, IsSudo: admin.IsSudo}, nil
}

func (s *adminService) DisableUsers(ctx context.Context, op Operator, username string) (int64, error) {
	return s.toggleUsers(ctx, op, username, true)
}

func (s *adminService) ActivateUsers(ctx context.Context, op Operator, username string) (int64, error) {
	return s.toggleUsers(ctx, op, username, false)
}

// toggleUsers 批量启停某个管理员名下的全部用户，仅 sudo 可调用。
func (s *adminService) toggleUsers(ctx context.Context, op Operator, username string, disabled bool) (int64, error) {
	if !op.IsSudo {
		return 0, ErrForbidden
	}
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		return 0, mapRepoError("admin.get", err)
	}
	// sudo 账号名下的用户不在批量启停范围内。
	if admin.IsSudo {
		return 0, ErrForbidden
	}
	affected, err := s.users.SetDisabledByAdmin(ctx, admin.ID, disabled)
	if err != nil {
		return 0, mapRepoError("user.set_disabled_by_admin", err)
	}
	s.logger.InfoContext(ctx, "bulk user toggle", "owner", username, "disabled", disabled, "affected", affected, "operator", op.Username)
	return affected, nil
}

func (s *adminService) view(ctx context.Context, admin *repository.Admin) *AdminView {
	ownerID := admin.ID
	usersCount, err := s.users.Count(ctx, repository.UserFilter{AdminID: &ownerID})
	if err != nil {
		s.logger.WarnContext(ctx, "count owned users failed", "username", admin.Username, "error", err)
	}
	return &AdminView{
		Username:    admin.Username,
		IsSudo:      admin.IsSudo,
		IsDisabled:  admin.IsDisabled,
		UsedTraffic: admin.UsedTraffic,
		TelegramID:  admin.TelegramID,
		WebhookURL:  admin.WebhookURL,
		UsersCount:  usersCount,
		CreatedAt:   admin.CreatedAt,
	}
}

// notify 把管理员事件推到已配置的通知通道，失败只记日志不影响主流程。
func (s *adminService) notify(ctx context.Context, admin *repository.Admin, event, message string) {
	if s.notifier == nil {
		return
	}
	if admin.WebhookURL != "" {
		err := s.notifier.SendWebhook(ctx, notifier.WebhookRequest{
			URL:   admin.WebhookURL,
			Event: event,
			Payload: map[string]any{
				"username": admin.Username,
				"message":  message,
				"at":       s.now().Unix(),
			},
		})
		if err != nil {
			s.logger.WarnContext(ctx, "webhook notification failed", "event", event, "error", err)
		}
	}
	if admin.TelegramID != nil {
		err := s.notifier.SendTelegram(ctx, notifier.TelegramRequest{
			ChatID:  *admin.TelegramID,
			Message: message,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "telegram notification failed", "event", event, "error", err)
		}
	}
}
