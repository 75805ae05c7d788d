// Package config は環境変数からアプリケーションの設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// defaultStateFile is relative to the user's home directory.
const defaultStateFile = ".smartlib/state.json"

// Config はアプリケーション全体の設定を保持する。
// 起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Backend
	APIURL        string        `env:"SMARTLIB_API_URL" envDefault:"http://localhost:3000/api"`
	Timeout       time.Duration `env:"SMARTLIB_TIMEOUT" envDefault:"10s"`
	LoginPath     string        `env:"SMARTLIB_LOGIN_PATH" envDefault:"/login"`
	RenewalHeader string        `env:"SMARTLIB_RENEWAL_HEADER" envDefault:"X-New-Token"`

	// Storage
	StorageDriver string `env:"SMARTLIB_STORAGE" envDefault:"file"`
	StateFile     string `env:"SMARTLIB_STATE_FILE"`
	RedisURL      string `env:"REDIS_URL"`
	RedisPrefix   string `env:"SMARTLIB_REDIS_PREFIX" envDefault:"smartlib:"`

	// Logging
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Locale
	Language string `env:"LANGUAGE"`
	Lang     string `env:"LANG"`

	Proxy ProxyConfig
}

// ProxyConfig は開発用リバースプロキシの設定。
type ProxyConfig struct {
	Port            string        `env:"PROXY_PORT" envDefault:"3000"`
	BackendURL      string        `env:"PROXY_BACKEND_URL" envDefault:"http://localhost:8084"`
	PathPrefix      string        `env:"PROXY_PATH_PREFIX" envDefault:"/api"`
	CORSOrigin      string        `env:"PROXY_CORS_ORIGIN"`
	RateLimit       int           `env:"PROXY_RATE_LIMIT" envDefault:"600"`
	ShutdownTimeout time.Duration `env:"PROXY_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load は.envファイル（存在する場合）と環境変数からConfigを読み込む。
// envFilesが空の場合はカレントディレクトリの.envを読み込む。
// 既に設定されている環境変数は.envの値で上書きしない。
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if cfg.StateFile == "" && cfg.StorageDriver == StorageFile {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("SMARTLIB_STATE_FILE is not set and home directory is unknown: %w", err)
		}
		cfg.StateFile = filepath.Join(home, defaultStateFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。不正な環境変数名を列挙したエラーを返す。
func (c *Config) Validate() error {
	var invalid []string

	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, "SMARTLIB_API_URL")
	}
	if c.Timeout <= 0 {
		invalid = append(invalid, "SMARTLIB_TIMEOUT")
	}

	switch c.StorageDriver {
	case StorageFile, StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			invalid = append(invalid, "REDIS_URL")
		}
	default:
		invalid = append(invalid, "SMARTLIB_STORAGE")
	}

	if u, err := url.Parse(c.Proxy.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, "PROXY_BACKEND_URL")
	}
	if c.Proxy.RateLimit <= 0 {
		invalid = append(invalid, "PROXY_RATE_LIMIT")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment variables: %v", invalid)
	}
	return nil
}
