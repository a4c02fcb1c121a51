package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Apex Trade.
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Auth        AuthConfig    `toml:"auth"`
	Risk        RiskConfig    `toml:"risk"`
	Logging     LoggingConfig `toml:"logging"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the paths of the storage areas.
type StorageConfig struct {
	Holdings     AreaConfig `toml:"holdings"`     // holdings keyed (account, symbol)
	Transactions AreaConfig `toml:"transactions"` // append-only trade log
	Market       AreaConfig `toml:"market"`       // daily close bars
	Internal     AreaConfig `toml:"internal"`     // accounts + system KV
}

// AreaConfig holds path configuration for a storage area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations.
type ClientsConfig struct {
	AlphaVantage AlphaVantageConfig `toml:"alphavantage"`
}

// AlphaVantageConfig holds Alpha Vantage API configuration.
type AlphaVantageConfig struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	RateLimit       int    `toml:"rate_limit"`
	Timeout         string `toml:"timeout"`
	RefreshInterval string `toml:"refresh_interval"`
}

// GetTimeout parses and returns the HTTP timeout duration.
func (c *AlphaVantageConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetRefreshInterval parses and returns the background refresh interval.
func (c *AlphaVantageConfig) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// AuthConfig holds JWT authentication configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// RiskConfig holds frontier analysis parameters.
type RiskConfig struct {
	RiskFreeRate float64 `toml:"risk_free_rate"`
	TradingDays  int     `toml:"trading_days"` // annualisation factor
	HistoryDays  int     `toml:"history_days"` // lookback window for returns
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Holdings:     AreaConfig{Path: "data/holdings"},
			Transactions: AreaConfig{Path: "data/transactions"},
			Market:       AreaConfig{Path: "data/market"},
			Internal:     AreaConfig{Path: "data/internal"},
		},
		Clients: ClientsConfig{
			AlphaVantage: AlphaVantageConfig{
				BaseURL:         "https://www.alphavantage.co",
				RateLimit:       5,
				Timeout:         "30s",
				RefreshInterval: "1h",
			},
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Risk: RiskConfig{
			RiskFreeRate: 0.0423,
			TradingDays:  252,
			HistoryDays:  365,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("APEX_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("APEX_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("APEX_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("APEX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("APEX_DATA_PATH"); path != "" {
		config.Storage.Holdings.Path = filepath.Join(path, "holdings")
		config.Storage.Transactions.Path = filepath.Join(path, "transactions")
		config.Storage.Market.Path = filepath.Join(path, "market")
		config.Storage.Internal.Path = filepath.Join(path, "internal")
	}

	if key := os.Getenv("ALPHAVANTAGE_API_KEY"); key != "" {
		config.Clients.AlphaVantage.APIKey = key
	}

	if secret := os.Getenv("APEX_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
}
