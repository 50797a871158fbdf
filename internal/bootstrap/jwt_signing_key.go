// 文件路径: internal/bootstrap/jwt_signing_key.go
// 模块说明: 这是 internal 模块里的签名密钥解析逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package bootstrap

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JWTSigningKeySource 标记密钥最终来自哪里，仅用于启动日志。
type JWTSigningKeySource string

const (
	JWTSigningKeySourceConfig    JWTSigningKeySource = "config"
	JWTSigningKeySourceSettings  JWTSigningKeySource = "settings"
	JWTSigningKeySourceGenerated JWTSigningKeySource = "generated"
)

const (
	placeholderSigningKey = "change-me"
	signingKeySettingName = "auth_signing_key"
	signingKeyByteLen     = 32
)

// ResolveJWTSigningKey 按优先级解析 JWT 签名密钥：
// 配置/环境变量 > settings 表里已持久化的值 > 随机生成并写回 settings。
// 配置值等于占位符 "change-me" 时视为未配置。
func ResolveJWTSigningKey(ctx context.Context, db *sql.DB, configuredKey string, now func() time.Time) (string, JWTSigningKeySource, error) {
	configured := strings.TrimSpace(configuredKey)
	if configured != "" && configured != placeholderSigningKey {
		return configured, JWTSigningKeySourceConfig, nil
	}
	if db == nil {
		return "", "", fmt.Errorf("resolve jwt signing key: db is required when auth.signing_key is unset; set FLEETPANEL_AUTH_SIGNING_KEY instead")
	}
	if now == nil {
		now = time.Now
	}

	stored, err := readStoredSigningKey(ctx, db)
	if err != nil {
		return "", "", fmt.Errorf("read jwt signing key: %w", err)
	}
	if stored != "" {
		return stored, JWTSigningKeySourceSettings, nil
	}

	raw := make([]byte, signingKeyByteLen)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate jwt signing key: %w", err)
	}
	generated := hex.EncodeToString(raw)

	// 插入时带 ON CONFLICT 守卫：并发的另一个进程可能已经写入了自己的密钥，
	// 那种情况下保留已有值，下面的回读保证所有进程用同一把密钥。
	const upsert = `INSERT INTO settings(key, value, category, updated_at) VALUES(?, ?, 'security', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		WHERE TRIM(settings.value) = ''`
	if _, err := db.ExecContext(ctx, upsert, signingKeySettingName, generated, now().Unix()); err != nil {
		return "", "", fmt.Errorf("persist jwt signing key: %w", err)
	}

	stored, err = readStoredSigningKey(ctx, db)
	if err != nil {
		return "", "", fmt.Errorf("read jwt signing key after persist: %w", err)
	}
	switch stored {
	case "":
		return "", "", fmt.Errorf("jwt signing key missing after persist")
	case generated:
		return stored, JWTSigningKeySourceGenerated, nil
	default:
		return stored, JWTSigningKeySourceSettings, nil
	}
}

func readStoredSigningKey(ctx context.Context, db *sql.DB) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, signingKeySettingName).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
