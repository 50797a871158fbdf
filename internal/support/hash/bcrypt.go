// 文件路径: internal/support/hash/bcrypt.go
// 模块说明: 这是 internal 模块里的密码哈希逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher 抽象密码哈希能力，管理员目录用它存储和校验口令。
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hashed, password string) error
	NeedsRehash(hashed string) bool
}

// ErrPasswordMismatch 表示密码与哈希不匹配。
var ErrPasswordMismatch = errors.New("password mismatch / 密码不匹配")

// BcryptHasher 基于 golang.org/x/crypto/bcrypt 实现 Hasher。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher 校验 cost 范围后返回哈希器，cost 为 0 时取 bcrypt 默认值。
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d / bcrypt cost 必须在 %d 到 %d 之间", bcrypt.MinCost, bcrypt.MaxCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// MustBcryptHasher 在参数非法时 panic，仅用于启动期配置。
func MustBcryptHasher(cost int) *BcryptHasher {
	h, err := NewBcryptHasher(cost)
	if err != nil {
		panic(err)
	}
	return h
}

// Hash 生成密码的 bcrypt 哈希。
func (h *BcryptHasher) Hash(password string) (string, error) {
	if h == nil {
		return "", fmt.Errorf("bcrypt hasher is required / bcrypt hasher 不能为空")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password hash failed: %v / 密码哈希失败: %w", err, err)
	}
	return string(hashed), nil
}

// Compare 校验明文密码与哈希是否匹配。
// 兼容 PHP 面板导出的 $2y 前缀哈希。
func (h *BcryptHasher) Compare(hashed, password string) error {
	if h == nil {
		return fmt.Errorf("bcrypt hasher is required / bcrypt hasher 不能为空")
	}
	err := bcrypt.CompareHashAndPassword(normalizePHPPrefix(hashed), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("hash comparison failed: %v / 校验哈希失败: %w", err, err)
	}
}

// NeedsRehash 判断已存哈希的 cost 是否和当前配置不一致。
func (h *BcryptHasher) NeedsRehash(hashed string) bool {
	if h == nil {
		return false
	}
	cost, err := bcrypt.Cost(normalizePHPPrefix(hashed))
	if err != nil {
		return true
	}
	return cost != h.cost
}

// normalizePHPPrefix 把 PHP crypt 产出的 $2y 前缀改写成 Go 实现认识的 $2a。
func normalizePHPPrefix(hashed string) []byte {
	buf := []byte(hashed)
	if len(buf) > 2 && buf[0] == '$' && buf[1] == '2' && buf[2] == 'y' {
		buf[2] = 'a'
	}
	return buf
}
