package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config збирає всі налаштування процесу. Завантажується з config.yaml,
// env-змінні з префіксом CAMPCHAT_ мають пріоритет.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Updates  UpdatesConfig  `mapstructure:"updates"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn" validate:"required"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret    string        `mapstructure:"secret" validate:"required,min=16"`
	ExpiresIn time.Duration `mapstructure:"expires_in" validate:"required"`
}

type VaultConfig struct {
	MasterKeyFile string `mapstructure:"master_key_file" validate:"required"`
}

type WebhookConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"required"`
	TotalTimeout   time.Duration `mapstructure:"total_timeout" validate:"required"`
}

type UpdatesConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"required"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout" validate:"required"`
	MaxTimeout     time.Duration `mapstructure:"max_timeout" validate:"required"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("postgres.dsn", "host=localhost user=user password=password dbname=campchat port=5432 sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	// Порожній дефолт реєструє ключ для AutomaticEnv; required-валідація
	// відсіє незаповнене значення.
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expires_in", 72*time.Hour)
	v.SetDefault("vault.master_key_file", "campchat_master.key")
	v.SetDefault("webhook.connect_timeout", 2*time.Second)
	v.SetDefault("webhook.total_timeout", 5*time.Second)
	v.SetDefault("updates.poll_interval", 500*time.Millisecond)
	v.SetDefault("updates.default_timeout", 30*time.Second)
	v.SetDefault("updates.max_timeout", 60*time.Second)
}

// Load читає config.yaml (необов'язковий), накладає env та валідує результат.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	v.SetEnvPrefix("CAMPCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Файл не знайдено — працюємо на дефолтах та env.
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}
