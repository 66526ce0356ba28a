package infra

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "LENDING_"

// UserAgent identifies the dashboard to the lending API.
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("%s/%s (%s; %s)", AppName, version, runtime.GOOS, runtime.GOARCH)
}

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	// PAPER, DEMO or REAL
	Mode string `yaml:"mode" env:"MODE"`

	API     APIConfig     `yaml:"api" envPrefix:"API_"`
	Wallet  WalletConfig  `yaml:"wallet" envPrefix:"WALLET_"`
	Network NetworkConfig `yaml:"network" envPrefix:"NETWORK_"`
	Cache   CacheConfig   `yaml:"cache" envPrefix:"CACHE_"`
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
}

type APIConfig struct {
	BaseURL           string  `yaml:"base_url" env:"BASE_URL"`
	DemoBaseURL       string  `yaml:"demo_base_url" env:"DEMO_BASE_URL"`
	WSURL             string  `yaml:"ws_url" env:"WS_URL"`
	Token             string  `yaml:"token" env:"TOKEN"`
	SecretsFile       string  `yaml:"secrets_file" env:"SECRETS_FILE"`
	TimeoutMS         int     `yaml:"timeout_ms" env:"TIMEOUT_MS"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"RPS"`
	Burst             int     `yaml:"burst" env:"BURST"`
}

// Timeout returns the per-request transport timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// WalletConfig is the operating wallet. An empty address means no wallet is connected.
type WalletConfig struct {
	Address string `yaml:"address" env:"ADDRESS"`
	ChainID int64  `yaml:"chain_id" env:"CHAIN_ID"`
}

// NetworkConfig is the chain the lending API serves.
type NetworkConfig struct {
	ChainID int64 `yaml:"chain_id" env:"CHAIN_ID"`
}

type CacheConfig struct {
	Backend       string `yaml:"backend" env:"BACKEND"` // memory or redis
	RedisURL      string `yaml:"redis_url" env:"REDIS_URL"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	Namespace     string `yaml:"namespace" env:"NAMESPACE"`
	MarketsTTLMS  int    `yaml:"markets_ttl_ms" env:"MARKETS_TTL_MS"`
	StatsTTLMS    int    `yaml:"stats_ttl_ms" env:"STATS_TTL_MS"`
	PositionTTLMS int    `yaml:"positions_ttl_ms" env:"POSITIONS_TTL_MS"`
}

type ServerConfig struct {
	Listen string `yaml:"listen" env:"LISTEN"`
}

type StorageConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	File    string `yaml:"file" env:"FILE"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" env:"LEVEL"`
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
}

// DefaultConfig returns the values used for keys missing from the yaml file.
func DefaultConfig() *Config {
	cfg := &Config{Mode: "PAPER"}
	cfg.App.Name = AppName
	cfg.App.Version = "dev"
	cfg.API.TimeoutMS = 10_000
	cfg.API.RequestsPerSecond = 5
	cfg.API.Burst = 10
	cfg.Network.ChainID = 1
	cfg.Wallet.ChainID = 1
	cfg.Cache.Backend = "memory"
	cfg.Cache.Namespace = "lending:"
	cfg.Cache.MarketsTTLMS = 30_000
	cfg.Cache.StatsTTLMS = 10_000
	cfg.Cache.PositionTTLMS = 15_000
	cfg.Server.Listen = "127.0.0.1:8088"
	cfg.Storage.Enabled = true
	cfg.Storage.File = "lending.db"
	cfg.Logging.Level = "info"
	cfg.Logging.File = "lending.log"
	cfg.Logging.MaxSizeMB = 50
	cfg.Logging.MaxBackups = 5
	return cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig applies yaml, then environment overrides, then validation.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// 환경 변수는 설정 파일보다 우선합니다
	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch c.Mode {
	case "PAPER", "DEMO", "REAL":
	default:
		return fmt.Errorf("invalid mode: %q", c.Mode)
	}

	if !hasAnyPrefix(c.API.BaseURL, "http://", "https://") {
		return fmt.Errorf("invalid API base URL: %q", c.API.BaseURL)
	}
	if c.Mode == "DEMO" && !hasAnyPrefix(c.API.DemoBaseURL, "http://", "https://") {
		return fmt.Errorf("DEMO mode requires api.demo_base_url, got %q", c.API.DemoBaseURL)
	}
	if c.API.WSURL != "" && !hasAnyPrefix(c.API.WSURL, "ws://", "wss://") {
		return fmt.Errorf("invalid WS URL: %s", c.API.WSURL)
	}
	if c.API.TimeoutMS < 1 {
		return fmt.Errorf("api timeout must be at least 1ms, got %dms", c.API.TimeoutMS)
	}
	if c.API.RequestsPerSecond <= 0 || c.API.Burst < 1 {
		return fmt.Errorf("api rate limit must be positive (rps=%v burst=%d)", c.API.RequestsPerSecond, c.API.Burst)
	}

	if c.Wallet.Address != "" && !common.IsHexAddress(c.Wallet.Address) {
		return fmt.Errorf("invalid wallet address: %q", c.Wallet.Address)
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("redis cache backend requires cache.redis_url")
		}
	default:
		return fmt.Errorf("invalid cache backend: %q", c.Cache.Backend)
	}
	if c.Cache.MarketsTTLMS < 0 || c.Cache.StatsTTLMS < 0 || c.Cache.PositionTTLMS < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}

	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) error {
	if cfg.API.Token != "" {
		// slog is not configured yet
		fmt.Println("⚠️  SECURITY WARNING: API token found in config file.")
		fmt.Println("   Recommendation: use LENDING_API_TOKEN or api.secrets_file instead.")
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment variables: %w", err)
	}
	cfg.Mode = strings.ToUpper(cfg.Mode)
	return nil
}
