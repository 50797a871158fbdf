// 文件路径: internal/repository/sqlite/admin.go
// 模块说明: 这是 internal 模块里的 admin 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
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

// adminRepo 负责 admins 表的 SQLite 实现。
type adminRepo struct {
	db *sql.DB
}

const adminSelectColumns = `id, username, password_hash, is_sudo, is_disabled, used_traffic, telegram_id, webhook_url, created_at, updated_at`

func adminSelectBy(field string) string {
	return fmt.Sprintf("SELECT %s FROM admins WHERE %s = ?", adminSelectColumns, field)
}

func (r *adminRepo) FindByID(ctx context.Context, id int64) (*repository.Admin, error) {
	row := r.db.QueryRowContext(ctx, adminSelectBy("id"), id)
	return scanAdmin(row)
}

func (r *adminRepo) FindByUsername(ctx context.Context, username string) (*repository.Admin, error) {
	row := r.db.QueryRowContext(ctx, adminSelectBy("username"), username)
	return scanAdmin(row)
}

func (r *adminRepo) List(ctx context.Context, filter repository.AdminFilter) ([]*repository.Admin, error) {
	query := "SELECT " + adminSelectColumns + " FROM admins"
	var conds []string
	var args []any

	if filter.Username != nil {
		conds = append(conds, "username = ?")
		args = append(args, *filter.Username)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []*repository.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

func (r *adminRepo) Count(ctx context.Context, filter repository.AdminFilter) (int64, error) {
	query := "SELECT COUNT(*) FROM admins"
	var args []any
	if filter.Username != nil {
		query += " WHERE username = ?"
		args = append(args, *filter.Username)
	}
	var count int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *adminRepo) CountSudo(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admins WHERE is_sudo = 1").Scan(&count)
	return count, err
}

func (r *adminRepo) Create(ctx context.Context, admin *repository.Admin) (*repository.Admin, error) {
	const stmt = `INSERT INTO admins(username, password_hash, is_sudo, is_disabled, used_traffic, telegram_id, webhook_url, created_at, updated_at)
	              VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().Unix()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, stmt,
		admin.Username,
		admin.PasswordHash,
		boolToInt(admin.IsSudo),
		boolToInt(admin.IsDisabled),
		admin.UsedTraffic,
		nullableInt(admin.TelegramID),
		admin.WebhookURL,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		admin.ID = id
	}
	return admin, nil
}

func (r *adminRepo) Update(ctx context.Context, admin *repository.Admin) error {
	const stmt = `UPDATE admins SET
		password_hash = ?,
		is_sudo = ?,
		is_disabled = ?,
		telegram_id = ?,
		webhook_url = ?,
		updated_at = ?
		WHERE id = ?`
	admin.UpdatedAt = time.Now().Unix()

	res, err := r.db.ExecContext(ctx, stmt,
		admin.PasswordHash,
		boolToInt(admin.IsSudo),
		boolToInt(admin.IsDisabled),
		nullableInt(admin.TelegramID),
		admin.WebhookURL,
		admin.UpdatedAt,
		admin.ID,
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

func (r *adminRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id)
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

func (r *adminRepo) ResetUsage(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE admins SET used_traffic = 0, updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (*repository.Admin, error) {
	var admin repository.Admin
	var isSudo, isDisabled int
	var telegramID sql.NullInt64

	if err := row.Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&isSudo,
		&isDisabled,
		&admin.UsedTraffic,
		&telegramID,
		&admin.WebhookURL,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	admin.IsSudo = isSudo == 1
	admin.IsDisabled = isDisabled == 1
	admin.TelegramID = nullableIntPtr(telegramID)
	return &admin, nil
}
