// 文件路径: internal/repository/sqlite/helpers.go
// 模块说明: 这是 internal 模块里的 helpers 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlite

import (
	"database/sql"
	"strings"

	"github.com/silverlode/fleetpanel/internal/repository"
)

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullableIntPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}

// translateError 把驱动层的约束冲突映射为仓储错误。
func translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return repository.ErrConflict
	}
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return repository.ErrConflict
	}
	return err
}
