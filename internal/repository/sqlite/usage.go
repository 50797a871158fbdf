// 文件路径: internal/repository/sqlite/usage.go
// 模块说明: 这是 internal 模块里的 usage 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/silverlode/fleetpanel/internal/repository"
)

// usageRepo 负责流量台账的事务性写入。
type usageRepo struct {
	db *sql.DB
}

// Record 在同一事务内累加用户、管理员、节点与 (user, node) 台账。
// 任何一步未命中目标行都会回滚整个事务，保证台账不出现半截更新。
func (r *usageRepo) Record(ctx context.Context, userID, adminID, nodeID, uplink, downlink int64, activate bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError(err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	total := uplink + downlink

	if err := execOne(ctx, tx,
		`UPDATE users SET used_traffic = used_traffic + ?, updated_at = ? WHERE id = ?`,
		total, now, userID); err != nil {
		return err
	}
	if activate {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET activated_at = ? WHERE id = ? AND activated_at IS NULL`,
			now, userID); err != nil {
			return translateError(err)
		}
	}
	if err := execOne(ctx, tx,
		`UPDATE admins SET used_traffic = used_traffic + ?, updated_at = ? WHERE id = ?`,
		total, now, adminID); err != nil {
		return err
	}
	if err := execOne(ctx, tx,
		`UPDATE nodes SET uplink_bytes = uplink_bytes + ?, downlink_bytes = downlink_bytes + ?, updated_at = ? WHERE id = ?`,
		uplink, downlink, now, nodeID); err != nil {
		return err
	}

	const upsert = `INSERT INTO usage_records(user_id, node_id, uplink, downlink, updated_at)
	                VALUES(?, ?, ?, ?, ?)
	                ON CONFLICT(user_id, node_id) DO UPDATE SET
	                  uplink = uplink + excluded.uplink,
	                  downlink = downlink + excluded.downlink,
	                  updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, userID, nodeID, uplink, downlink, now); err != nil {
		return translateError(err)
	}

	return translateError(tx.Commit())
}

// ResetUser 清零用户计数器并删除其台账行，两步同一事务。
func (r *usageRepo) ResetUser(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError(err)
	}
	defer tx.Rollback()

	if err := execOne(ctx, tx,
		`UPDATE users SET used_traffic = 0, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM usage_records WHERE user_id = ?`, userID); err != nil {
		return translateError(err)
	}

	return translateError(tx.Commit())
}

func (r *usageRepo) ListByUser(ctx context.Context, userID int64) ([]*repository.UsageRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, node_id, uplink, downlink, updated_at FROM usage_records WHERE user_id = ? ORDER BY node_id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*repository.UsageRecord
	for rows.Next() {
		var rec repository.UsageRecord
		if err := rows.Scan(&rec.UserID, &rec.NodeID, &rec.Uplink, &rec.Downlink, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// execOne 执行必须恰好命中一行的更新，脱靶视为目标缺失。
func execOne(ctx context.Context, tx *sql.Tx, stmt string, args ...any) error {
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return translateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return fmt.Errorf("expected one affected row, got %d: %w", affected, repository.ErrNotFound)
	}
	return nil
}
