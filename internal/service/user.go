// 文件路径: internal/service/user.go
// 模块说明: 这是 internal 模块里的用户生命周期逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/silverlode/fleetpanel/internal/repository"
)

// UserService 提供用户的创建、查询、修改与删除流程。
type UserService interface {
	Get(ctx context.Context, op Operator, username string) (*UserView, error)
	List(ctx context.Context, op Operator, input UserListInput) (*UserListResult, error)
	Create(ctx context.Context, op Operator, input UserCreateInput) (*UserView, error)
	Modify(ctx context.Context, op Operator, username string, input UserModifyInput) (*UserView, error)
	Remove(ctx context.Context, op Operator, username string) error
	ResetUsage(ctx context.Context, op Operator, username string) error
	Activate(ctx context.Context, op Operator, username string) (*UserView, error)
}

// UserListInput 控制用户列表的筛选与分页。
type UserListInput struct {
	Status *repository.UserStatus
	Admin  *string
	Offset int
	Limit  int
}

// UserListResult 包装分页用户列表，Total 不受分页影响。
type UserListResult struct {
	Users []UserView `json:"users"`
	Total int64      `json:"total"`
}

// UserCreateInput 描述新建用户的字段。OnHold 为 true 时延迟激活。
type UserCreateInput struct {
	Username  string `json:"username"`
	DataLimit *int64 `json:"data_limit,omitempty"`
	ExpireAt  *int64 `json:"expire_at,omitempty"`
	OnHold    bool   `json:"on_hold,omitempty"`
	Note      string `json:"note,omitempty"`
}

// UserModifyInput 描述可修改的用户字段，nil 表示保持不变，Clear 布尔清空对应字段。
type UserModifyInput struct {
	DataLimit      *int64  `json:"data_limit,omitempty"`
	ClearDataLimit bool    `json:"clear_data_limit,omitempty"`
	ExpireAt       *int64  `json:"expire_at,omitempty"`
	ClearExpire    bool    `json:"clear_expire,omitempty"`
	Disabled       *bool   `json:"disabled,omitempty"`
	Note           *string `json:"note,omitempty"`
}

// UserView 对齐 API 返回的用户结构，状态是读取时推导出来的。
type UserView struct {
	Username    string                `json:"username"`
	Status      repository.UserStatus `json:"status"`
	Owner       string                `json:"owner"`
	UsedTraffic int64                 `json:"used_traffic"`
	DataLimit   *int64                `json:"data_limit"`
	ExpireAt    *int64                `json:"expire_at"`
	ActivatedAt *int64                `json:"activated_at"`
	Note        string                `json:"note,omitempty"`
	CreatedAt   int64                 `json:"created_at"`
}

type userService struct {
	users  repository.UserRepository
	admins repository.AdminRepository
	usage  repository.UsageRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService 组装用户生命周期服务。
func NewUserService(users repository.UserRepository, admins repository.AdminRepository, usage repository.UsageRepository, logger *slog.Logger) UserService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &userService{users: users, admins: admins, usage: usage, logger: logger, now: time.Now}
}

// operatorAdmin 把操作者身份解析成数据库里的管理员行。
func (s *userService) operatorAdmin(ctx context.Context, op Operator) (*repository.Admin, error) {
	admin, err := s.admins.FindByUsername(ctx, op.Username)
	if err != nil {
		return nil, mapRepoError("admin.get", err)
	}
	return admin, nil
}

// authorize 加载用户并做"所有者或 sudo"检查。
func (s *userService) authorize(ctx context.Context, op Operator, username string) (*repository.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, mapRepoError("user.get", err)
	}
	if op.IsSudo {
		return user, nil
	}
	owner, err := s.operatorAdmin(ctx, op)
	if err != nil {
		return nil, err
	}
	if user.AdminID != owner.ID {
		return nil, ErrForbidden
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, op Operator, username string) (*UserView, error) {
	user, err := s.authorize(ctx, op, username)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, user), nil
}

func (s *userService) List(ctx context.Context, op Operator, input UserListInput) (*UserListResult, error) {
	if input.Offset < 0 || input.Limit < 0 {
		return nil, fmt.Errorf("%w: offset and limit must not be negative", ErrInvalidArgument)
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, *input.Status)
	}
	filter := repository.UserFilter{
		Status:  input.Status,
		NowUnix: s.now().Unix(),
		Offset:  input.Offset,
		Limit:   input.Limit,
	}
	if !op.IsSudo {
		owner, err := s.operatorAdmin(ctx, op)
		if err != nil {
			return nil, err
		}
		filter.AdminID = &owner.ID
	} else if input.Admin != nil {
		owner, err := s.admins.FindByUsername(ctx, *input.Admin)
		if err != nil {
			return nil, mapRepoError("admin.get", err)
		}
		filter.AdminID = &owner.ID
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, mapRepoError("user.count", err)
	}
	result := &UserListResult{Users: make([]UserView, 0), Total: total}
	if input.Limit == 0 {
		// limit=0 约定返回空页，总数照常给出。
		return result, nil
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError("user.list", err)
	}
	for _, user := range users {
		result.Users = append(result.Users, *s.view(ctx, user))
	}
	return result, nil
}

func (s *userService) Create(ctx context.Context, op Operator, input UserCreateInput) (*UserView, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}
	if input.DataLimit != nil && *input.DataLimit < 0 {
		return nil, fmt.Errorf("%w: data limit must not be negative", ErrInvalidArgument)
	}
	owner, err := s.operatorAdmin(ctx, op)
	if err != nil {
		return nil, err
	}
	now := s.now().Unix()
	user := &repository.User{
		Username:  username,
		AdminID:   owner.ID,
		DataLimit: input.DataLimit,
		ExpireAt:  input.ExpireAt,
		Note:      strings.TrimSpace(input.Note),
		CreatedAt: now,
	}
	if !input.OnHold {
		activated := now
		user.ActivatedAt = &activated
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, mapRepoError("user.create", err)
	}
	s.logger.InfoContext(ctx, "user created", "username", username, "owner", owner.Username, "on_hold", input.OnHold)
	return s.view(ctx, user), nil
}

func (s *userService) Modify(ctx context.Context, op Operator, username string, input UserModifyInput) (*UserView, error) {
	user, err := s.authorize(ctx, op, username)
	if err != nil {
		return nil, err
	}
	if input.DataLimit != nil && *input.DataLimit < 0 {
		return nil, fmt.Errorf("%w: data limit must not be negative", ErrInvalidArgument)
	}
	if input.ClearDataLimit {
		user.DataLimit = nil
	} else if input.DataLimit != nil {
		user.DataLimit = input.DataLimit
	}
	if input.ClearExpire {
		user.ExpireAt = nil
	} else if input.ExpireAt != nil {
		user.ExpireAt = input.ExpireAt
	}
	if input.Disabled != nil {
		user.IsDisabled = *input.Disabled
	}
	if input.Note != nil {
		user.Note = strings.TrimSpace(*input.Note)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoError("user.update", err)
	}
	s.logger.InfoContext(ctx, "user modified", "username", username, "operator", op.Username)
	return s.view(ctx, user), nil
}

func (s *userService) Remove(ctx context.Context, op Operator, username string) error {
	user, err := s.authorize(ctx, op, username)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return mapRepoError("user.delete", err)
	}
	s.logger.InfoContext(ctx, "user removed", "username", username, "operator", op.Username)
	return nil
}

func (s *userService) ResetUsage(ctx context.Context, op Operator, username string) error {
	user, err := s.authorize(ctx, op, username)
	if err != nil {
		return err
	}
	if err := s.usage.ResetUser(ctx, user.ID); err != nil {
		return mapRepoError("usage.reset_user", err)
	}
	s.logger.InfoContext(ctx, "user usage reset", "username", username, "operator", op.Username)
	return nil
}

// Activate 手动结束 on_hold 状态，对已激活用户幂等。
func (s *userService) Activate(ctx context.Context, op Operator, username string) (*UserView, error) {
	user, err := s.authorize(ctx, op, username)
	if err != nil {
		return nil, err
	}
	if user.ActivatedAt == nil {
		activated := s.now().Unix()
		user.ActivatedAt = &activated
		if err := s.users.Update(ctx, user); err != nil {
			return nil, mapRepoError("user.update", err)
		}
		s.logger.InfoContext(ctx, "user activated", "username", username, "operator", op.Username)
	}
	return s.view(ctx, user), nil
}

func (s *userService) view(ctx context.Context, user *repository.User) *UserView {
	ownerName := ""
	if owner, err := s.admins.FindByID(ctx, user.AdminID); err == nil {
		ownerName = owner.Username
	}
	return &UserView{
		Username:    user.Username,
		Status:      StatusOf(user, s.now()),
		Owner:       ownerName,
		UsedTraffic: user.UsedTraffic,
		DataLimit:   user.DataLimit,
		ExpireAt:    user.ExpireAt,
		ActivatedAt: user.ActivatedAt,
		Note:        user.Note,
		CreatedAt:   user.CreatedAt,
	}
}
