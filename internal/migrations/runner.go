// 文件路径: internal/migrations/runner.go
// 模块说明: 这是 internal 模块里的数据库迁移入口，下面的注释会用非常通俗的中文帮你理解每一步。
package migrations

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

var (
	setupOnce sync.Once
	setupErr  error
)

func setup() error {
	setupOnce.Do(func() {
		if err := goose.SetDialect("sqlite3"); err != nil {
			setupErr = fmt.Errorf("set goose dialect: %w", err)
			return
		}
		goose.SetBaseFS(SQLite)
	})
	return setupErr
}

// Up 把数据库结构升级到最新版本，serve 启动时总会先跑一次。
func Up(db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.Up(db, "sqlite")
}

// Down 回滚最近的一次迁移。
func Down(db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.Down(db, "sqlite")
}

// Status 打印各迁移文件的执行状态。
func Status(db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	return goose.Status(db, "sqlite")
}
