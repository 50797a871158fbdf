// 文件路径: internal/tui/model.go
// 模块说明: 这是 internal 模块里的 tui 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/silverlode/fleetpanel/internal/repository"
	"github.com/silverlode/fleetpanel/internal/repository/sqlite"
	"github.com/silverlode/fleetpanel/internal/service"
)

// ViewType 表示当前视图
type ViewType int

const (
	ViewNodeList   ViewType = iota // 节点列表
	ViewNodeDetail                 // 节点详情
	ViewUserList                   // 用户列表
)

// NodeStatus 表示节点的心跳状态
type NodeStatus string

const (
	StatusOnline  NodeStatus = "online"
	StatusWarning NodeStatus = "warning"
	StatusOffline NodeStatus = "offline"
)

// NodeInfo 封装节点与计算后的状态
type NodeInfo struct {
	Node   *repository.Node
	Status NodeStatus
}

// UserInfo 封装用户与推导出的状态
type UserInfo struct {
	User   *repository.User
	Owner  string
	Status repository.UserStatus
}

// Model 是主 TUI 模型
type Model struct {
	// 数据
	nodes        []NodeInfo
	selectedNode int

	users        []UserInfo
	selectedUser int

	// 视图状态
	view       ViewType
	detailNode *NodeInfo

	// 存储引用
	store *sqlite.Store

	// 终端尺寸
	width  int
	height int

	// 详情视图的滚动状态
	detailScrollOffset int

	// 状态
	loading bool
	err     error

	// 按键绑定
	keys keyMap
}

// keyMap 定义全部按键绑定
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Users   key.Binding
	Quit    key.Binding
	Refresh key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Users: key.NewBinding(
			key.WithKeys("u", "tab"),
			key.WithHelp("u", "users"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// NewModel 创建新的 TUI 模型
func NewModel(store *sqlite.Store) Model {
	return Model{
		store:        store,
		view:         ViewNodeList,
		selectedNode: 0,
		selectedUser: 0,
		keys:         defaultKeyMap(),
		loading:      true,
	}
}

// Init 实现 tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadNodes(),
		tickCmd(),
	)
}

// 消息类型

type nodesLoadedMsg struct {
	nodes []NodeInfo
}

type usersLoadedMsg struct {
	users []UserInfo
}

type errorMsg struct {
	err error
}

type tickMsg time.Time

// 命令

func (m Model) loadNodes() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		all, err := m.store.Nodes().List(ctx)
		if err != nil {
			return errorMsg{err: err}
		}

		nodes := make([]NodeInfo, len(all))
		now := time.Now().Unix()
		for i, n := range all {
			nodes[i] = NodeInfo{
				Node:   n,
				Status: calcNodeStatus(n, now),
			}
		}

		return nodesLoadedMsg{nodes: nodes}
	}
}

func (m Model) loadUsers() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		all, err := m.store.Users().List(ctx, repository.UserFilter{})
		if err != nil {
			return errorMsg{err: err}
		}

		// 用户状态不落库，读出后逐个推导；归属管理员名按 ID 缓存。
		owners := make(map[int64]string)
		now := time.Now()

		users := make([]UserInfo, len(all))
		for i, u := range all {
			owner, ok := owners[u.AdminID]
			if !ok {
				if admin, err := m.store.Admins().FindByID(ctx, u.AdminID); err == nil {
					owner = admin.Username
				}
				owners[u.AdminID] = owner
			}
			users[i] = UserInfo{
				User:   u,
				Owner:  owner,
				Status: service.StatusOf(u, now),
			}
		}

		return usersLoadedMsg{users: users}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// 辅助函数

// calcNodeStatus 按最近心跳时间衰减节点状态：离线标记优先，
// 其次两分钟内算在线，五分钟内算告警，再久算离线。
func calcNodeStatus(n *repository.Node, now int64) NodeStatus {
	if !n.IsOnline || n.LastSeenAt == 0 {
		return StatusOffline
	}

	diff := now - n.LastSeenAt
	switch {
	case diff <= 120:
		return StatusOnline
	case diff <= 300:
		return StatusWarning
	default:
		return StatusOffline
	}
}
