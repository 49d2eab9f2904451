package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServer  = "http://localhost:8080"
	defaultEnv     = "local"
	defaultTimeout = 30 * time.Second
)

// Config настройки административного клиента
type Config struct {
	Env     string        `validate:"oneof=local dev prod"`
	Server  string        `validate:"required,url"`
	Token   string        `validate:"-"`
	Actor   string        `validate:"max=100"`
	Timeout time.Duration `validate:"gt=0"`
}

// Load читает .env, переменные SYNC_* и необязательный YAML-файл
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("sync_server", defaultServer)
	v.SetDefault("sync_admin_token", "")
	v.SetDefault("sync_actor", "")
	v.SetDefault("sync_timeout", defaultTimeout)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Env:     v.GetString("app_env"),
		Server:  strings.TrimRight(v.GetString("sync_server"), "/"),
		Token:   v.GetString("sync_admin_token"),
		Actor:   v.GetString("sync_actor"),
		Timeout: v.GetDuration("sync_timeout"),
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	return cfg, nil
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
