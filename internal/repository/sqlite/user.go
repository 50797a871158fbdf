// 文件路径: internal/repository/sqlite/user.go
// 模块说明: 这是 internal 模块里的 user 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/silverlode/fleetpanel/internal/repository"
)

// userRepo 负责 users 表的 SQLite 实现。
type userRepo struct {
	db *sql.DB
}

const userSelectColumns = `id, username, admin_id, used_traffic, data_limit, expire_at, activated_at, is_disabled, note, created_at, updated_at`

func userSelectBy(field string) string {
	return fmt.Sprintf("SELECT %s FROM users WHERE %s = ?", userSelectColumns, field)
}

func (r *userRepo) FindByID(ctx context.Context, id int64) (*repository.User, error) {
	row := r.db.QueryRowContext(ctx, userSelectBy("id"), id)
	return scanUser(row)
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*repository.User, error) {
	row := r.db.QueryRowContext(ctx, userSelectBy("username"), username)
	return scanUser(row)
}

// statusConds 把推导状态翻译成 SQL 条件。状态是字段的纯函数，
// 过滤必须和 service 层的推导保持同一套判断，时间基准由调用方给定。
func statusConds(status repository.UserStatus, nowUnix int64) (string, []any) {
	const notExpired = "(expire_at IS NULL OR expire_at > ?)"
	const notLimited = "(data_limit IS NULL OR used_traffic < data_limit)"
	switch status {
	case repository.UserStatusDisabled:
		return "is_disabled = 1", nil
	case repository.UserStatusExpired:
		return "is_disabled = 0 AND expire_at IS NOT NULL AND expire_at <= ?", []any{nowUnix}
	case repository.UserStatusLimited:
		return "is_disabled = 0 AND " + notExpired + " AND data_limit IS NOT NULL AND used_traffic >= data_limit", []any{nowUnix}
	case repository.UserStatusOnHold:
		return "is_disabled = 0 AND " + notExpired + " AND " + notLimited + " AND activated_at IS NULL", []any{nowUnix}
	case repository.UserStatusActive:
		return "is_disabled = 0 AND " + notExpired + " AND " + notLimited + " AND activated_at IS NOT NULL", []any{nowUnix}
	}
	return "", nil
}

func userFilterWhere(filter repository.UserFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Status != nil {
		cond, condArgs := statusConds(*filter.Status, filter.NowUnix)
		if cond != "" {
			conds = append(conds, cond)
			args = append(args, condArgs...)
		}
	}
	if filter.AdminID != nil {
		conds = append(conds, "admin_id = ?")
		args = append(args, *filter.AdminID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *userRepo) List(ctx context.Context, filter repository.UserFilter) ([]*repository.User, error) {
	where, args := userFilterWhere(filter)
	query := "SELECT " + userSelectColumns + " FROM users" + where + " ORDER BY created_at ASC, id ASC"

	// Limit <= 0 表示不限制，分页语义由 service 层把关。
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*repository.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepo) Count(ctx context.Context, filter repository.UserFilter) (int64, error) {
	where, args := userFilterWhere(filter)
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&count)
	return count, err
}

func (r *userRepo) Create(ctx context.Context, user *repository.User) (*repository.User, error) {
	const stmt = `INSERT INTO users(username, admin_id, used_traffic, data_limit, expire_at, activated_at, is_disabled, note, created_at, updated_at)
	              VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().Unix()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, stmt,
		user.Username,
		user.AdminID,
		user.UsedTraffic,
		nullableInt(user.DataLimit),
		nullableInt(user.ExpireAt),
		nullableInt(user.ActivatedAt),
		boolToInt(user.IsDisabled),
		user.Note,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		user.ID = id
	}
	return user, nil
}

func (r *userRepo) Update(ctx context.Context, user *repository.User) error {
	const stmt = `UPDATE users SET
		data_limit = ?,
		expire_at = ?,
		activated_at = ?,
		is_disabled = ?,
		note = ?,
		updated_at = ?
		WHERE id = ?`
	user.UpdatedAt = time.Now().Unix()

	res, err := r.db.ExecContext(ctx, stmt,
		nullableInt(user.DataLimit),
		nullableInt(user.ExpireAt),
		nullableInt(user.ActivatedAt),
		boolToInt(user.IsDisabled),
		user.Note,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return translateError(err)
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

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
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

func (r *userRepo) SetDisabledByAdmin(ctx context.Context, adminID int64, disabled bool) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_disabled = ?, updated_at = ? WHERE admin_id = ? AND is_disabled = ?`,
		boolToInt(disabled), time.Now().Unix(), adminID, boolToInt(!disabled))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanUser(row rowScanner) (*repository.User, error) {
	var user repository.User
	var dataLimit, expireAt, activatedAt sql.NullInt64
	var isDisabled int

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.AdminID,
		&user.UsedTraffic,
		&dataLimit,
		&expireAt,
		&activatedAt,
		&isDisabled,
		&user.Note,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	user.DataLimit = nullableIntPtr(dataLimit)
	user.ExpireAt = nullableIntPtr(expireAt)
	user.ActivatedAt = nullableIntPtr(activatedAt)
	user.IsDisabled = isDisabled == 1
	return &user, nil
}
