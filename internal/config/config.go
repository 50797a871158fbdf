package config

import (
	"log/slog"
	"time"
)

// Config 汇总应用的全部配置。
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
}

// HTTPConfig 定义 HTTP 服务配置。
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig 定义日志配置。
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// DBConfig 定义数据库配置。
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// AuthConfig 定义认证配置。
type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	Issuer     string        `mapstructure:"issuer"`
	Leeway     time.Duration `mapstructure:"leeway"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`

	// LoginRateLimit 是同一来源在窗口期内允许的失败次数。
	LoginRateLimit  int           `mapstructure:"login_rate_limit"`
	LoginRateWindow time.Duration `mapstructure:"login_rate_window"`
}

// MetricsConfig 定义 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// NotifyConfig 定义管理员事件通知配置。
type NotifyConfig struct {
	TelegramToken string        `mapstructure:"telegram_token"`
	MaxElapsed    time.Duration `mapstructure:"max_elapsed"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// HeartbeatConfig 定义节点心跳离线判定配置。
type HeartbeatConfig struct {
	// Silence 是判定节点离线的静默窗口。
	Silence time.Duration `mapstructure:"silence"`
	// SweepSpec 是离线扫描任务的 cron 表达式。
	SweepSpec string `mapstructure:"sweep_spec"`
}

func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
