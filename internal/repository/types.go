// 文件路径: internal/repository/types.go
// 模块说明: 这是 internal 模块里的 types 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

// Admin 表示一名操作员账号，聚合其名下用户消耗的流量。
type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
	IsSudo       bool
	IsDisabled   bool
	// UsedTraffic 汇总该管理员名下全部用户消耗的字节数。
	UsedTraffic int64
	TelegramID  *int64
	WebhookURL  string
	CreatedAt   int64
	UpdatedAt   int64
}

// User 表示一个代理账号。状态不落库，读取时按字段推导。
type User struct {
	ID          int64
	Username    string
	AdminID     int64
	UsedTraffic int64
	// DataLimit 为空表示不限流量。
	DataLimit *int64
	// ExpireAt 为空表示永不过期。
	ExpireAt *int64
	// ActivatedAt 为空表示账号已开通但尚未激活（on hold）。
	ActivatedAt *int64
	IsDisabled  bool
	Note        string
	CreatedAt   int64
	UpdatedAt   int64
}

// Node 表示一台受管的远程代理节点。
type Node struct {
	ID       int64
	Name     string
	Address  string
	Port     int
	APIKey   string
	IsOnline bool
	// LastSeenAt 记录最近一次心跳时间，0 表示从未上报。
	LastSeenAt int64
	// UplinkBytes / DownlinkBytes 汇总经过该节点的流量。
	UplinkBytes   int64
	DownlinkBytes int64
	CreatedAt     int64
	UpdatedAt     int64
}

// UsageRecord 表示 (user, node) 维度的累计流量。
type UsageRecord struct {
	UserID    int64
	NodeID    int64
	Uplink    int64
	Downlink  int64
	UpdatedAt int64
}

// UserStatusCounts 按推导状态统计用户数量。
type UserStatusCounts struct {
	Total    int64
	Active   int64
	OnHold   int64
	Limited  int64
	Expired  int64
	Disabled int64
}

// BandwidthTotals 汇总全体用户的出入向流量。
type BandwidthTotals struct {
	Incoming int64
	Outgoing int64
}

// SystemSnapshot 是一次事务内读出的全量统计，保证各计数彼此一致。
type SystemSnapshot struct {
	Users       UserStatusCounts
	Bandwidth   BandwidthTotals
	NodesTotal  int64
	NodesOnline int64
	AdminsTotal int64
}
