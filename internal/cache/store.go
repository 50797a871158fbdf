// 文件路径: internal/cache/store.go
// 模块说明: 这是 internal 模块里的进程内缓存逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store 是鉴权限流与统计缓存共用的缓存接口。
// Namespace 返回共享同一后端、但 key 带前缀的视图。
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (any, bool)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	GetBytes(ctx context.Context, key string) ([]byte, bool)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	Delete(ctx context.Context, key string)
	TTL(ctx context.Context, key string) (time.Duration, bool)
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	Namespace(prefix string) Store
}

// Options 配置内存缓存行为。
type Options struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	Prefix          string
}

// NewStore 创建基于 go-cache 的缓存实现。
func NewStore(opts Options) Store {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = ttl
	}
	return &memoryStore{
		backend:    gocache.New(ttl, cleanup),
		defaultTTL: ttl,
		prefix:     strings.Trim(opts.Prefix, ": "),
	}
}

type memoryStore struct {
	backend    *gocache.Cache
	defaultTTL time.Duration
	prefix     string
}

func (s *memoryStore) key(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return s.prefix
	case s.prefix == "":
		return raw
	default:
		return s.prefix + ":" + raw
	}
}

func (s *memoryStore) ttl(requested time.Duration) time.Duration {
	if requested <= 0 {
		return s.defaultTTL
	}
	return requested
}

func (s *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.backend.Set(s.key(key), value, s.ttl(ttl))
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) (any, bool) {
	return s.backend.Get(s.key(key))
}

// SetBytes 存入副本，调用方之后改动原切片不影响缓存内容。
func (s *memoryStore) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	return s.Set(ctx, key, buf, ttl)
}

func (s *memoryStore) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return nil, false
	}
	stored, ok := raw.([]byte)
	if !ok {
		return nil, false
	}
	buf := make([]byte, len(stored))
	copy(buf, stored)
	return buf, true
}

func (s *memoryStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return s.SetBytes(ctx, key, data, ttl)
}

func (s *memoryStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := s.GetBytes(ctx, key)
	if !ok {
		return false, nil
	}
	if dest == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) {
	s.backend.Delete(s.key(key))
}

func (s *memoryStore) TTL(_ context.Context, key string) (time.Duration, bool) {
	_, exp, ok := s.backend.GetWithExpiration(s.key(key))
	if !ok || exp.IsZero() {
		return 0, false
	}
	remain := time.Until(exp)
	if remain <= 0 {
		return 0, false
	}
	return remain, true
}

// Increment 对存储的 int64 计数器加 delta，key 不存在时先以 0 初始化。
// TTL 在每次自增后重新写入，保证计数器的过期时间由最近一次写决定。
func (s *memoryStore) Increment(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	name := s.key(key)
	if strings.TrimSpace(key) == "" {
		return 0, nil
	}
	normalized := s.ttl(ttl)
	if _, ok := s.backend.Get(name); !ok {
		s.backend.Set(name, int64(0), normalized)
	}
	if err := s.backend.Increment(name, delta); err != nil {
		return 0, fmt.Errorf("cache increment failed: %w", err)
	}
	raw, ok := s.backend.Get(name)
	if !ok {
		return 0, nil
	}
	current, ok := raw.(int64)
	if !ok {
		return 0, fmt.Errorf("cache increment returned non-int64")
	}
	s.backend.Set(name, current, normalized)
	return current, nil
}

func (s *memoryStore) Namespace(prefix string) Store {
	parts := []string{s.prefix, strings.Trim(prefix, ": ")}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return &memoryStore{
		backend:    s.backend,
		defaultTTL: s.defaultTTL,
		prefix:     strings.Join(kept, ":"),
	}
}
