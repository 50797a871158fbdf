// 文件路径: internal/repository/sqlite/node.go
// 模块说明: 这是 internal 模块里的 node 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/silverlode/fleetpanel/internal/repository"
)

// nodeRepo 负责 nodes 表的 SQLite 实现。
type nodeRepo struct {
	db *sql.DB
}

const nodeSelectColumns = `id, name, address, port, api_key, is_online, last_seen_at, uplink_bytes, downlink_bytes, created_at, updated_at`

func nodeSelectBy(field string) string {
	return fmt.Sprintf("SELECT %s FROM nodes WHERE %s = ?", nodeSelectColumns, field)
}

func (r *nodeRepo) FindByID(ctx context.Context, id int64) (*repository.Node, error) {
	row := r.db.QueryRowContext(ctx, nodeSelectBy("id"), id)
	return scanNode(row)
}

func (r *nodeRepo) FindByAPIKey(ctx context.Context, apiKey string) (*repository.Node, error) {
	row := r.db.QueryRowContext(ctx, nodeSelectBy("api_key"), apiKey)
	return scanNode(row)
}

func (r *nodeRepo) List(ctx context.Context) ([]*repository.Node, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+nodeSelectColumns+" FROM nodes ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*repository.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func (r *nodeRepo) Create(ctx context.Context, node *repository.Node) (*repository.Node, error) {
	const stmt = `INSERT INTO nodes(name, address, port, api_key, is_online, last_seen_at, uplink_bytes, downlink_bytes, created_at, updated_at)
	              VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().Unix()
	node.CreatedAt = now
	node.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, stmt,
		node.Name,
		node.Address,
		node.Port,
		node.APIKey,
		boolToInt(node.IsOnline),
		node.LastSeenAt,
		node.UplinkBytes,
		node.DownlinkBytes,
		node.CreatedAt,
		node.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		node.ID = id
	}
	return node, nil
}

func (r *nodeRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *nodeRepo) SetOnline(ctx context.Context, id int64, online bool, seenAtUnix int64) error {
	var res sql.Result
	var err error
	if online {
		res, err = r.db.ExecContext(ctx,
			`UPDATE nodes SET is_online = 1, last_seen_at = ?, updated_at = ? WHERE id = ?`,
			seenAtUnix, time.Now().Unix(), id)
	} else {
		// 离线不回退 last_seen_at，保留最后一次心跳时间。
		res, err = r.db.ExecContext(ctx,
			`UPDATE nodes SET is_online = 0, updated_at = ? WHERE id = ?`,
			time.Now().Unix(), id)
	}
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *nodeRepo) ListOnlineSilentSince(ctx context.Context, cutoffUnix int64) ([]*repository.Node, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+nodeSelectColumns+" FROM nodes WHERE is_online = 1 AND last_seen_at < ? ORDER BY id ASC",
		cutoffUnix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*repository.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func scanNode(row rowScanner) (*repository.Node, error) {
	var node repository.Node
	var isOnline int

	if err := row.Scan(
		&node.ID,
		&node.Name,
		&node.Address,
		&node.Port,
		&node.APIKey,
		&isOnline,
		&node.LastSeenAt,
		&node.UplinkBytes,
		&node.DownlinkBytes,
		&node.CreatedAt,
		&node.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	node.IsOnline = isOnline == 1
	return &node, nil
}
