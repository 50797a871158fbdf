// 文件路径: internal/support/format/format.go
// 模块说明: 这是 internal 模块里的展示格式化逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Bytes 把字节数转成人类可读的形式，如 1.5 GB。
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// UnixDate 把秒级时间戳转成日期，0 或负值显示为 never。
func UnixDate(ts int64) string {
	if ts <= 0 {
		return "never"
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04")
}

// OptionalUnixDate 处理可空时间戳，nil 显示为 dash。
func OptionalUnixDate(ts *int64) string {
	if ts == nil {
		return "-"
	}
	return UnixDate(*ts)
}

// OptionalBytes 处理可空字节数，nil 显示为 unlimited。
func OptionalBytes(n *int64) string {
	if n == nil {
		return "unlimited"
	}
	return Bytes(*n)
}

// StatusLabel 把下划线状态名转成展示用文案，如 on_hold -> On Hold。
func StatusLabel(status string) string {
	return titleCaser.String(strings.ReplaceAll(status, "_", " "))
}
