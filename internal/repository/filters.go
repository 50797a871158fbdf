// 文件路径: internal/repository/filters.go
// 模块说明: 这是 internal 模块里的 filters 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

// UserStatus 是按存储字段推导出的用户生命周期状态。
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusOnHold   UserStatus = "on_hold"
	UserStatusLimited  UserStatus = "limited"
	UserStatusExpired  UserStatus = "expired"
	UserStatusDisabled UserStatus = "disabled"
)

// Valid 判断状态值是否合法。
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusOnHold, UserStatusLimited, UserStatusExpired, UserStatusDisabled:
		return true
	}
	return false
}

// UserFilter 定义用户列表的筛选与分页条件。
// Status 按推导状态过滤，推导以 NowUnix 为准；AdminID 限定归属管理员。
type UserFilter struct {
	Status  *UserStatus
	AdminID *int64
	NowUnix int64
	Offset  int
	Limit   int
}

// AdminFilter 定义管理员列表的筛选与分页条件。
type AdminFilter struct {
	Username *string
	Offset   int
	Limit    int
}
