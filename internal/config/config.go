package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Commerce CommerceConfig `mapstructure:"commerce"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	ReadOnly bool   `mapstructure:"read_only"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	AdminKey        string `mapstructure:"admin_key"`
	NonceTTLMinutes int    `mapstructure:"nonce_ttl_minutes"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type AuditConfig struct {
	Table       string `mapstructure:"table"`
	RecentLimit int    `mapstructure:"recent_limit"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	AuditListKey string `mapstructure:"audit_list_key"`
	AuditListMax int    `mapstructure:"audit_list_max"`
	NoncePrefix  string `mapstructure:"nonce_prefix"`
}

// CommerceConfig selects the order/catalog store. Driver is "postgres" or
// "sqlite"; an empty DSN with sqlite means an in-memory database.
type CommerceConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_only", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.admin_key", "")
	v.SetDefault("auth.nonce_ttl_minutes", 720)
	v.SetDefault("database.dsn", "")
	v.SetDefault("audit.table", "order_line_item_logs")
	v.SetDefault("audit.recent_limit", 50)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.audit_list_key", "opa:line_item_logs")
	v.SetDefault("redis.audit_list_max", 10000)
	v.SetDefault("redis.nonce_prefix", "opa:nonce:")
	v.SetDefault("commerce.driver", "sqlite")
	v.SetDefault("commerce.dsn", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func Load() (*Config, error) {
	return LoadFrom(viper.New(), ".", "./configs")
}

// LoadFrom reads config.yaml from the given paths into v, with OPA_* env
// overrides, e.g. OPA_AUTH_ADMIN_KEY.
func LoadFrom(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("opa")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
