// 文件路径: internal/bootstrap/infra.go
// 模块说明: 这是 internal 模块里的 infra 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/silverlode/fleetpanel/internal/auth/token"
	"github.com/silverlode/fleetpanel/internal/cache"
	"github.com/silverlode/fleetpanel/internal/config"
	"github.com/silverlode/fleetpanel/internal/notifier"
	"github.com/silverlode/fleetpanel/internal/security"
	"github.com/silverlode/fleetpanel/internal/support/hash"
)

// Infrastructure bundles shared helpers required by auth and notification flows.
type Infrastructure struct {
	Cache       cache.Store
	Token       *token.Manager
	Hasher      hash.Hasher
	Notifier    notifier.Service
	RateLimiter *security.RateLimiter
	Audit       security.Recorder
}

// BuildInfrastructure wires default implementations for cache/token/hash/notification helpers.
// The JWT signing key falls back to a generated value persisted in the settings table.
func BuildInfrastructure(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (*Infrastructure, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}

	cacheStore := cache.NewStore(cache.Options{
		Prefix:          "fleetpanel",
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	})

	signingKey, source, err := ResolveJWTSigningKey(ctx, db, cfg.Auth.SigningKey, time.Now)
	if err != nil {
		return nil, fmt.Errorf("resolve signing key: %w", err)
	}
	if source == JWTSigningKeySourceGenerated {
		logger.InfoContext(ctx, "generated jwt signing key persisted to settings")
	}

	tokenManager, err := token.NewManager(token.Options{
		SigningKey: []byte(signingKey),
		Issuer:     cfg.Auth.Issuer,
		TTL:        cfg.Auth.TokenTTL,
		Leeway:     cfg.Auth.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	hasher, err := hash.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt hasher: %w", err)
	}

	rateLimiter, err := security.NewRateLimiter(cacheStore)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	notif := notifier.NewHTTPService(logger,
		notifier.WithTelegramToken(cfg.Notify.TelegramToken),
		notifier.WithMaxElapsed(cfg.Notify.MaxElapsed),
	)
	audit := security.NewLoggerRecorder(logger)

	return &Infrastructure{
		Cache:       cacheStore,
		Token:       tokenManager,
		Hasher:      hasher,
		Notifier:    notif,
		RateLimiter: rateLimiter,
		Audit:       audit,
	}, nil
}
