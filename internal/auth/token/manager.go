// 文件路径: internal/auth/token/manager.go
// 模块说明: 这是 internal 模块里的 manager 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Manager 负责签发和校验管理员会话 JWT。
type Manager struct {
	method jwt.SigningMethod
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
}

// Options 配置 Token 管理器。
type Options struct {
	SigningKey []byte
	Issuer     string
	TTL        time.Duration
	Leeway     time.Duration
}

// Claims 包含 JWT 标准声明与操作者元数据，Subject 是管理员用户名。
type Claims struct {
	jwt.RegisteredClaims
	IsSudo bool `json:"is_sudo"`
}

var (
	// ErrInvalidToken 表示解析或校验失败。
	ErrInvalidToken = errors.New("invalid token / 无效的 token")
	// ErrExpiredToken 表示令牌超出允许的过期宽限。
	ErrExpiredToken = errors.New("token expired / token 已过期")
)

// NewManager 组装 JWT 管理器，签名算法固定为 HS256。
func NewManager(opts Options) (*Manager, error) {
	if len(opts.SigningKey) == 0 {
		return nil, fmt.Errorf("signing key is required / 签名密钥不能为空")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	leeway := opts.Leeway
	if leeway < 0 {
		leeway = 0
	}
	return &Manager{
		method: jwt.SigningMethodHS256,
		secret: append([]byte(nil), opts.SigningKey...),
		issuer: strings.TrimSpace(opts.Issuer),
		ttl:    ttl,
		leeway: leeway,
	}, nil
}

// MustManager 在参数非法时直接 panic，用于启动期默认配置。
func MustManager(opts Options) *Manager {
	m, err := NewManager(opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Issue 为管理员签发会话令牌，sudo 标记随 Claims 下发。
func (m *Manager) Issue(username string, isSudo bool) (string, *Claims, error) {
	if m == nil {
		return "", nil, fmt.Errorf("token manager not initialized / token 管理器未初始化")
	}
	if strings.TrimSpace(username) == "" {
		return "", nil, fmt.Errorf("token subject is required / token subject 不能为空")
	}

	now := time.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		IsSudo: isSudo,
	}

	token := jwt.NewWithClaims(m.method, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse 校验 JWT 字符串并返回解析后的声明。
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	if m == nil {
		return nil, fmt.Errorf("token manager not initialized / token 管理器未初始化")
	}
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{m.method.Alg()}))
	parsed, err := parser.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := m.validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// validateClaims 校验 JWT 标准声明。
func (m *Manager) validateClaims(claims *Claims) error {
	now := time.Now().UTC()
	if claims.ExpiresAt == nil || now.After(claims.ExpiresAt.Add(m.leeway)) {
		return ErrExpiredToken
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(now.Add(m.leeway)) {
		return ErrInvalidToken
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return ErrInvalidToken
	}
	return nil
}
