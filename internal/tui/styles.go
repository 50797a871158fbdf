// 文件路径: internal/tui/styles.go
// 模块说明: 这是 internal 模块里的 tui 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/silverlode/fleetpanel/internal/repository"
)

var (
	// Colors
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorBorder  = lipgloss.Color("#374151")

	// Base styles
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// Status indicators
	styleOnline = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	styleOffline = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	// Table styles
	styleTableHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorPrimary).
				Padding(0, 1)

	styleTableRow = lipgloss.NewStyle().
			Padding(0, 1)

	styleTableRowSelected = lipgloss.NewStyle().
				Background(lipgloss.Color("#1F2937")).
				Foreground(lipgloss.Color("#FFFFFF")).
				Padding(0, 1)

	// Box styles
	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	styleDetailBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)

	// Label styles
	styleLabel = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(16)

	styleValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// Progress bar styles
	styleProgressFilled = lipgloss.NewStyle().
				Foreground(colorSuccess)

	styleProgressEmpty = lipgloss.NewStyle().
				Foreground(colorMuted)
)

// NodeStatusIcon returns a colored heartbeat indicator for nodes
func NodeStatusIcon(status string) string {
	switch status {
	case "online":
		return styleOnline.Render("●")
	case "warning":
		return styleWarning.Render("◐")
	case "offline":
		return styleOffline.Render("○")
	default:
		return styleMuted().Render("?")
	}
}

// UserStatusIcon returns a colored, fixed-width label for a derived user status
func UserStatusIcon(status repository.UserStatus) string {
	label := fmt.Sprintf("%-10s", status)
	switch status {
	case repository.UserStatusActive:
		return styleOnline.Render(label)
	case repository.UserStatusOnHold:
		return styleMuted().Render(label)
	case repository.UserStatusLimited:
		return styleWarning.Render(label)
	case repository.UserStatusExpired, repository.UserStatusDisabled:
		return styleOffline.Render(label)
	default:
		return styleMuted().Render(label)
	}
}

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMuted)
}

// ProgressBar renders a simple quota bar
func ProgressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(float64(width) * percent / 100)
	empty := width - filled

	bar := ""
	for i := 0; i < filled; i++ {
		bar += styleProgressFilled.Render("█")
	}
	for i := 0; i < empty; i++ {
		bar += styleProgressEmpty.Render("░")
	}

	return bar
}
