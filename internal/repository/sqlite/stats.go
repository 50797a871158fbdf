// 文件路径: internal/repository/sqlite/stats.go
// 模块说明: 这是 internal 模块里的 stats 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlite

import (
	"context"
	"database/sql"

	"github.com/silverlode/fleetpanel/internal/repository"
)

// statsRepo 在单个事务内读取全量统计，保证快照一致。
type statsRepo struct {
	db *sql.DB
}

func (r *statsRepo) Snapshot(ctx context.Context, nowUnix int64) (*repository.SystemSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var snap repository.SystemSnapshot

	// 状态推导条件必须与 statusConds 一致。
	const userCounts = `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN is_disabled = 1 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN is_disabled = 0 AND expire_at IS NOT NULL AND expire_at <= ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN is_disabled = 0 AND (expire_at IS NULL OR expire_at > ?) AND data_limit IS NOT NULL AND used_traffic >= data_limit THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN is_disabled = 0 AND (expire_at IS NULL OR expire_at > ?) AND (data_limit IS NULL OR used_traffic < data_limit) AND activated_at IS NULL THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN is_disabled = 0 AND (expire_at IS NULL OR expire_at > ?) AND (data_limit IS NULL OR used_traffic < data_limit) AND activated_at IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM users`
	if err := tx.QueryRowContext(ctx, userCounts, nowUnix, nowUnix, nowUnix, nowUnix).Scan(
		&snap.Users.Total,
		&snap.Users.Disabled,
		&snap.Users.Expired,
		&snap.Users.Limited,
		&snap.Users.OnHold,
		&snap.Users.Active,
	); err != nil {
		return nil, err
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(uplink), 0), COALESCE(SUM(downlink), 0) FROM usage_records`,
	).Scan(&snap.Bandwidth.Incoming, &snap.Bandwidth.Outgoing); err != nil {
		return nil, err
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_online), 0) FROM nodes`,
	).Scan(&snap.NodesTotal, &snap.NodesOnline); err != nil {
		return nil, err
	}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&snap.AdminsTotal); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &snap, nil
}
