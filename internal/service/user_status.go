// 文件路径: internal/service/user_status.go
// 模块说明: 这是 internal 模块里的用户状态推导逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"time"

	"github.com/silverlode/fleetpanel/internal/repository"
)

// StatusOf 根据存储字段推导用户的展示状态，状态本身不落库。
// 优先级从高到低: disabled > expired > limited > on_hold > active。
func StatusOf(u *repository.User, now time.Time) repository.UserStatus {
	if u.IsDisabled {
		return repository.UserStatusDisabled
	}
	if u.ExpireAt != nil && *u.ExpireAt <= now.Unix() {
		return repository.UserStatusExpired
	}
	if u.DataLimit != nil && u.UsedTraffic >= *u.DataLimit {
		return repository.UserStatusLimited
	}
	if u.ActivatedAt == nil {
		return repository.UserStatusOnHold
	}
	return repository.UserStatusActive
}
