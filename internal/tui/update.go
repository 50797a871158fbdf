// 文件路径: internal/tui/update.go
// 模块说明: 这是 internal 模块里的 tui 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case nodesLoadedMsg:
		m.loading = false
		m.nodes = msg.nodes
		m.err = nil

		// 详情页悬挂的节点指针同步为最新数据
		if m.view == ViewNodeDetail && m.detailNode != nil {
			for i := range m.nodes {
				if m.nodes[i].Node.ID == m.detailNode.Node.ID {
					m.detailNode = &m.nodes[i]
					break
				}
			}
		}
		return m, nil

	case usersLoadedMsg:
		m.loading = false
		m.users = msg.users
		m.err = nil
		return m, nil

	case errorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tickMsg:
		// 根据当前视图自动刷新
		switch m.view {
		case ViewNodeList, ViewNodeDetail:
			return m, tea.Batch(m.loadNodes(), tickCmd())
		case ViewUserList:
			return m, tea.Batch(m.loadUsers(), tickCmd())
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		return m.handleUp()

	case key.Matches(msg, m.keys.Down):
		return m.handleDown()

	case key.Matches(msg, m.keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, m.keys.Back):
		return m.handleBack()

	case key.Matches(msg, m.keys.Users):
		return m.handleUsersToggle()

	case key.Matches(msg, m.keys.Refresh):
		return m.handleRefresh()
	}

	return m, nil
}

func (m Model) handleUp() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewNodeList:
		if len(m.nodes) > 0 {
			m.selectedNode--
			if m.selectedNode < 0 {
				m.selectedNode = len(m.nodes) - 1
			}
		}
	case ViewUserList:
		if len(m.users) > 0 {
			m.selectedUser--
			if m.selectedUser < 0 {
				m.selectedUser = len(m.users) - 1
			}
		}
	case ViewNodeDetail:
		if m.detailScrollOffset > 0 {
			m.detailScrollOffset--
		}
	}
	return m, nil
}

func (m Model) handleDown() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewNodeList:
		if len(m.nodes) > 0 {
			m.selectedNode++
			if m.selectedNode >= len(m.nodes) {
				m.selectedNode = 0
			}
		}
	case ViewUserList:
		if len(m.users) > 0 {
			m.selectedUser++
			if m.selectedUser >= len(m.users) {
				m.selectedUser = 0
			}
		}
	case ViewNodeDetail:
		viewportHeight := m.height - 4
		if viewportHeight < 5 {
			viewportHeight = 5
		}
		// 渲染时会再次收敛，这里用宽松上界允许滚动
		maxScroll := 100 - viewportHeight
		if maxScroll < 0 {
			maxScroll = 0
		}
		if m.detailScrollOffset < maxScroll {
			m.detailScrollOffset++
		}
	}
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.view == ViewNodeList && len(m.nodes) > 0 {
		m.detailNode = &m.nodes[m.selectedNode]
		m.view = ViewNodeDetail
		m.detailScrollOffset = 0
	}
	return m, nil
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewNodeDetail:
		m.view = ViewNodeList
		m.detailNode = nil
	case ViewUserList:
		m.view = ViewNodeList
		m.users = nil
		m.selectedUser = 0
	}
	return m, nil
}

func (m Model) handleUsersToggle() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewNodeList:
		m.view = ViewUserList
		m.selectedUser = 0
		m.loading = true
		return m, m.loadUsers()
	case ViewUserList:
		m.view = ViewNodeList
		m.users = nil
		m.selectedUser = 0
	}
	return m, nil
}

func (m Model) handleRefresh() (tea.Model, tea.Cmd) {
	m.loading = true
	switch m.view {
	case ViewUserList:
		return m, m.loadUsers()
	default:
		return m, m.loadNodes()
	}
}
