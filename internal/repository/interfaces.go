// 文件路径: internal/repository/interfaces.go
// 模块说明: 这是 internal 模块里的 interfaces 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

import "context"

// Store 暴露每个聚合根对应的仓储接口。
type Store interface {
	Admins() AdminRepository
	Users() UserRepository
	Nodes() NodeRepository
	Usage() UsageRepository
	Stats() StatsRepository
}

// AdminRepository 定义管理员账号的数据访问方法。
type AdminRepository interface {
	FindByID(ctx context.Context, id int64) (*Admin, error)
	FindByUsername(ctx context.Context, username string) (*Admin, error)
	List(ctx context.Context, filter AdminFilter) ([]*Admin, error)
	Count(ctx context.Context, filter AdminFilter) (int64, error)
	CountSudo(ctx context.Context) (int64, error)
	Create(ctx context.Context, admin *Admin) (*Admin, error)
	Update(ctx context.Context, admin *Admin) error
	Delete(ctx context.Context, id int64) error

	// ResetUsage 仅清零管理员的聚合流量计数，不触碰其名下用户。
	ResetUsage(ctx context.Context, id int64) error
}

// UserRepository 定义用户账号的数据访问方法。
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)

	// List 按创建时间升序返回一页用户；Count 返回同条件下的总数，不受分页影响。
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)

	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int64) error

	// SetDisabledByAdmin 批量启用/停用某管理员名下用户，返回受影响行数。
	SetDisabledByAdmin(ctx context.Context, adminID int64, disabled bool) (int64, error)
}

// NodeRepository 定义节点注册表的数据访问方法。
type NodeRepository interface {
	FindByID(ctx context.Context, id int64) (*Node, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*Node, error)

	// List 按 ID 升序返回全部节点。
	List(ctx context.Context) ([]*Node, error)
	Create(ctx context.Context, node *Node) (*Node, error)
	Delete(ctx context.Context, id int64) error

	// SetOnline 更新在线标记与最近心跳时间，重复调用幂等。
	SetOnline(ctx context.Context, id int64, online bool, seenAtUnix int64) error

	// ListOnlineSilentSince 返回在线但心跳早于 cutoff 的节点，供离线扫描使用。
	ListOnlineSilentSince(ctx context.Context, cutoffUnix int64) ([]*Node, error)
}

// UsageRepository 定义流量台账的事务性写入。
type UsageRepository interface {
	// Record 在同一事务内累加用户、归属管理员、节点计数器与
	// (user, node) 台账行；activate 为真时同时落下激活时间。
	// 任一步失败则全部回滚。
	Record(ctx context.Context, userID, adminID, nodeID, uplink, downlink int64, activate bool) error

	// ResetUser 在同一事务内清零用户计数器并删除其台账行。
	ResetUser(ctx context.Context, userID int64) error

	ListByUser(ctx context.Context, userID int64) ([]*UsageRecord, error)
}

// StatsRepository 提供一致性快照读取。
type StatsRepository interface {
	// Snapshot 在单个只读事务内读出全部计数，保证彼此一致。
	Snapshot(ctx context.Context, nowUnix int64) (*SystemSnapshot, error)
}
