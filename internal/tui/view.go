// 文件路径: internal/tui/view.go
// 模块说明: 这是 internal 模块里的 tui 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/silverlode/fleetpanel/internal/repository"
	"github.com/silverlode/fleetpanel/internal/support/format"
)

// View 实现 tea.Model
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.view {
	case ViewNodeDetail:
		return m.renderNodeDetailView()
	case ViewUserList:
		return m.renderUserListView()
	default:
		return m.renderNodeListView()
	}
}

func (m Model) renderNodeListView() string {
	var b strings.Builder

	header := styleHeader.Width(m.width).Render("  Fleetpanel Node Monitor")
	b.WriteString(header)
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleOffline.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if m.loading {
		b.WriteString(styleMuted().Render("  Loading..."))
		b.WriteString("\n\n")
	}

	tableHeader := fmt.Sprintf(
		"  %-4s │ %-18s │ %-21s │ %-10s │ %-10s │ %s",
		"ID", "Name", "Address", "Uplink", "Downlink", "Last Seen",
	)
	b.WriteString(styleTableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")

	b.WriteString(styleMuted().Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(m.nodes) == 0 {
		b.WriteString(styleMuted().Render("  No nodes registered. Use `fleetpanel node add` first."))
		b.WriteString("\n")
	} else {
		visibleRows := m.height - 12
		if visibleRows < 5 {
			visibleRows = 5
		}

		startIdx := 0
		if m.selectedNode >= visibleRows {
			startIdx = m.selectedNode - visibleRows + 1
		}

		endIdx := startIdx + visibleRows
		if endIdx > len(m.nodes) {
			endIdx = len(m.nodes)
		}

		for i := startIdx; i < endIdx; i++ {
			b.WriteString(m.renderNodeTableRow(m.nodes[i], i == m.selectedNode))
			b.WriteString("\n")
		}

		if len(m.nodes) > visibleRows {
			scrollInfo := fmt.Sprintf("  Showing %d-%d of %d nodes", startIdx+1, endIdx, len(m.nodes))
			b.WriteString(styleMuted().Render(scrollInfo))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderNodeStatusSummary())
	b.WriteString("\n\n")

	help := styleHelp.Render("  [↑/↓] Navigate  [Enter] Details  [u] Users  [r] Refresh  [q] Quit")
	b.WriteString(help)

	return b.String()
}

func (m Model) renderNodeTableRow(node NodeInfo, selected bool) string {
	status := NodeStatusIcon(string(node.Status))

	name := node.Node.Name
	if len(name) > 16 {
		name = name[:13] + "..."
	}

	addr := fmt.Sprintf("%s:%d", node.Node.Address, node.Node.Port)
	if len(addr) > 21 {
		addr = addr[:18] + "..."
	}

	row := fmt.Sprintf(
		"  %-4d │ %s %-16s │ %-21s │ %-10s │ %-10s │ %s",
		node.Node.ID,
		status,
		name,
		addr,
		format.Bytes(node.Node.UplinkBytes),
		format.Bytes(node.Node.DownlinkBytes),
		formatLastSeen(node.Node.LastSeenAt),
	)

	if selected {
		return styleTableRowSelected.Width(m.width).Render("▶" + row[1:])
	}
	return styleTableRow.Render(row)
}

func (m Model) renderNodeStatusSummary() string {
	online, warning, offline := 0, 0, 0

	for _, n := range m.nodes {
		switch n.Status {
		case StatusOnline:
			online++
		case StatusWarning:
			warning++
		case StatusOffline:
			offline++
		}
	}

	return fmt.Sprintf(
		"  %s %d Online  %s %d Warning  %s %d Offline  │  Total: %d nodes",
		styleOnline.Render("●"),
		online,
		styleWarning.Render("◐"),
		warning,
		styleOffline.Render("○"),
		offline,
		len(m.nodes),
	)
}

func (m Model) renderUserListView() string {
	var b strings.Builder

	header := styleHeader.Width(m.width).Render("  Fleetpanel Users")
	b.WriteString(header)
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styleOffline.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if m.loading {
		b.WriteString(styleMuted().Render("  Loading..."))
		b.WriteString("\n\n")
	}

	tableHeader := fmt.Sprintf(
		"  %-4s │ %-18s │ %-12s │ %-10s │ %-22s │ %s",
		"ID", "Username", "Owner", "Status", "Usage", "Expires",
	)
	b.WriteString(styleTableHeader.Width(m.width).Render(tableHeader))
	b.WriteString("\n")

	b.WriteString(styleMuted().Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if len(m.users) == 0 {
		b.WriteString(styleMuted().Render("  No users found"))
		b.WriteString("\n")
	} else {
		visibleRows := m.height - 12
		if visibleRows < 5 {
			visibleRows = 5
		}

		startIdx := 0
		if m.selectedUser >= visibleRows {
			startIdx = m.selectedUser - visibleRows + 1
		}

		endIdx := startIdx + visibleRows
		if endIdx > len(m.users) {
			endIdx = len(m.users)
		}

		for i := startIdx; i < endIdx; i++ {
			b.WriteString(m.renderUserTableRow(m.users[i], i == m.selectedUser))
			b.WriteString("\n")
		}

		if len(m.users) > visibleRows {
			scrollInfo := fmt.Sprintf("  Showing %d-%d of %d users", startIdx+1, endIdx, len(m.users))
			b.WriteString(styleMuted().Render(scrollInfo))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderUserStatusSummary())
	b.WriteString("\n\n")

	help := styleHelp.Render("  [↑/↓] Navigate  [Esc/u] Nodes  [r] Refresh  [q] Quit")
	b.WriteString(help)

	return b.String()
}

func (m Model) renderUserTableRow(user UserInfo, selected bool) string {
	username := user.User.Username
	if len(username) > 18 {
		username = username[:15] + "..."
	}

	owner := user.Owner
	if owner == "" {
		owner = "-"
	}
	if len(owner) > 12 {
		owner = owner[:9] + "..."
	}

	// 有限额时画配额进度条，无限额只显示已用字节。
	usage := format.Bytes(user.User.UsedTraffic)
	if user.User.DataLimit != nil && *user.User.DataLimit > 0 {
		percent := float64(user.User.UsedTraffic) / float64(*user.User.DataLimit) * 100
		usage = ProgressBar(percent, 10) + fmt.Sprintf(" %3.0f%%", percent)
	}

	expires := "never"
	if user.User.ExpireAt != nil {
		expires = time.Unix(*user.User.ExpireAt, 0).Format("2006-01-02")
	}

	row := fmt.Sprintf(
		"  %-4d │ %-18s │ %-12s │ %s │ %-22s │ %s",
		user.User.ID,
		username,
		owner,
		UserStatusIcon(user.Status),
		usage,
		expires,
	)

	if selected {
		return styleTableRowSelected.Width(m.width).Render("▶" + row[1:])
	}
	return styleTableRow.Render(row)
}

func (m Model) renderUserStatusSummary() string {
	counts := make(map[repository.UserStatus]int)
	for _, u := range m.users {
		counts[u.Status]++
	}

	return fmt.Sprintf(
		"  %s %d Active  %s %d On Hold  %s %d Limited  %s %d Expired  %s %d Disabled  │  Total: %d users",
		styleOnline.Render("●"),
		counts[repository.UserStatusActive],
		styleMuted().Render("◌"),
		counts[repository.UserStatusOnHold],
		styleWarning.Render("◐"),
		counts[repository.UserStatusLimited],
		styleOffline.Render("○"),
		counts[repository.UserStatusExpired],
		styleOffline.Render("✕"),
		counts[repository.UserStatusDisabled],
		len(m.users),
	)
}

func (m Model) renderNodeDetailView() string {
	if m.detailNode == nil {
		return "No node selected"
	}

	node := m.detailNode.Node

	var contentLines []string

	title := fmt.Sprintf("  Node: %s (#%d)", node.Name, node.ID)
	header := styleHeader.Width(m.width).Render(title)
	contentLines = append(contentLines, header)
	contentLines = append(contentLines, "")

	basicBox := styleDetailBox.Width(m.width - 4).Render(m.renderBasicInfo(m.detailNode))
	contentLines = append(contentLines, strings.Split(basicBox, "\n")...)
	contentLines = append(contentLines, "")

	trafficBox := styleBox.Width(m.width - 4).Render(m.renderTrafficInfo(node))
	contentLines = append(contentLines, strings.Split(trafficBox, "\n")...)
	contentLines = append(contentLines, "")

	totalLines := len(contentLines)

	viewportHeight := m.height - 4
	if viewportHeight < 5 {
		viewportHeight = 5
	}

	maxScroll := totalLines - viewportHeight
	if maxScroll < 0 {
		maxScroll = 0
	}

	scrollOffset := m.detailScrollOffset
	if scrollOffset > maxScroll {
		scrollOffset = maxScroll
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}

	startIdx := scrollOffset
	endIdx := startIdx + viewportHeight
	if endIdx > len(contentLines) {
		endIdx = len(contentLines)
	}

	var b strings.Builder
	for i := startIdx; i < endIdx; i++ {
		b.WriteString(contentLines[i])
		if i < endIdx-1 {
			b.WriteString("\n")
		}
	}

	if totalLines > viewportHeight {
		scrollPos := scrollOffset + 1
		scrollMax := maxScroll + 1
		if scrollMax < 1 {
			scrollMax = 1
		}
		b.WriteString("\n")
		b.WriteString(styleMuted().Render(fmt.Sprintf(" [%d/%d]", scrollPos, scrollMax)))
	}

	b.WriteString("\n")

	help := styleHelp.Render("  [↑/↓] Scroll  [Esc] Back  [r] Refresh  [q] Quit")
	b.WriteString(help)

	return b.String()
}

func (m Model) renderBasicInfo(node *NodeInfo) string {
	n := node.Node

	var lines []string

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
		styleLabel.Render("Status:"),
		NodeStatusIcon(string(node.Status)),
	))

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
		styleLabel.Render("Address:"),
		styleValue.Render(fmt.Sprintf("%s:%d", n.Address, n.Port)),
	))

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
		styleLabel.Render("Last Seen:"),
		styleValue.Render(formatLastSeen(n.LastSeenAt)),
	))

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
		styleLabel.Render("Registered:"),
		styleValue.Render(time.Unix(n.CreatedAt, 0).Format("2006-01-02 15:04")),
	))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderTrafficInfo(n *repository.Node) string {
	var lines []string

	lines = append(lines, styleTitle.Render("Traffic"))
	lines = append(lines, "")

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
		styleLabel.Render("Uplink:"),
		styleValue.Render(format.Bytes(n.UplinkBytes)),
	))

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
		styleLabel.Render("Downlink:"),
		styleValue.Render(format.Bytes(n.DownlinkBytes)),
	))

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
		styleLabel.Render("Total:"),
		styleValue.Render(format.Bytes(n.UplinkBytes+n.DownlinkBytes)),
	))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatLastSeen(ts int64) string {
	if ts == 0 {
		return "Never"
	}

	t := time.Unix(ts, 0)
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}
