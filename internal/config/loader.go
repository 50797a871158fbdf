package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load 按 默认值 < 配置文件 < 环境变量 的优先级装配配置。
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/fleetpanel/")

	v.SetEnvPrefix("FLEETPANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// 没有配置文件也能跑，默认值加环境变量就够了。
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "0.0.0.0:8080")
	v.SetDefault("http.shutdown_timeout", "15s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/fleetpanel.db")

	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.issuer", "fleetpanel")
	v.SetDefault("auth.leeway", "30s")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.login_rate_limit", 10)
	v.SetDefault("auth.login_rate_window", "10m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "fleetpanel")

	v.SetDefault("notify.max_elapsed", "30s")
	v.SetDefault("notify.flush_interval", "5s")

	v.SetDefault("heartbeat.silence", "3m")
	v.SetDefault("heartbeat.sweep_spec", "@every 1m")
}
