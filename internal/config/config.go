// Package config provides configuration management for the trading engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"tradecover/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Trading  TradingConfig  `mapstructure:"trading"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Store    StoreConfig    `mapstructure:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TradingConfig holds trading loop configuration.
type TradingConfig struct {
	Mode            string        `mapstructure:"mode"` // "live", "paper"
	Watchlist       []string      `mapstructure:"watchlist"`
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
	MaxPositionSize float64       `mapstructure:"max_position_size"`
	InitialBalance  float64       `mapstructure:"initial_balance"`
}

// StrategyConfig holds strategy defaults.
type StrategyConfig struct {
	Kind             string  `mapstructure:"kind"`
	RiskLevel        string  `mapstructure:"risk_level"`
	ProfitTargetPct  float64 `mapstructure:"profit_target_percentage"`
	StopLossPct      float64 `mapstructure:"stop_loss_percentage"`
	TargetExpiryDays int     `mapstructure:"options_expiry_days"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/tradecover"
	}
	return filepath.Join(home, ".config", "tradecover")
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			Mode:            "paper",
			ScanInterval:    60 * time.Second,
			MaxPositionSize: 5000.0,
			InitialBalance:  100000.0,
		},
		Strategy: StrategyConfig{
			Kind:             "covered_call",
			RiskLevel:        string(models.RiskModerate),
			ProfitTargetPct:  5.0,
			StopLossPct:      3.0,
			TargetExpiryDays: 30,
		},
		Store: StoreConfig{
			Path: filepath.Join(DefaultConfigDir(), "tradecover.db"),
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	def := Default()
	v.SetDefault("trading.mode", def.Trading.Mode)
	v.SetDefault("trading.scan_interval", def.Trading.ScanInterval)
	v.SetDefault("trading.max_position_size", def.Trading.MaxPositionSize)
	v.SetDefault("trading.initial_balance", def.Trading.InitialBalance)
	v.SetDefault("strategy.kind", def.Strategy.Kind)
	v.SetDefault("strategy.risk_level", def.Strategy.RiskLevel)
	v.SetDefault("strategy.profit_target_percentage", def.Strategy.ProfitTargetPct)
	v.SetDefault("strategy.stop_loss_percentage", def.Strategy.StopLossPct)
	v.SetDefault("strategy.options_expiry_days", def.Strategy.TargetExpiryDays)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.console", def.Logging.Console)
	v.SetDefault("logging.file", def.Logging.File)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADECOVER_MODE"); v != "" {
		cfg.Trading.Mode = v
	}
	if v := os.Getenv("TRADECOVER_RISK_LEVEL"); v != "" {
		cfg.Strategy.RiskLevel = v
	}
	if v := os.Getenv("TRADECOVER_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TRADECOVER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRADECOVER_EXPIRY_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.Strategy.TargetExpiryDays = days
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Trading.Mode != "live" && c.Trading.Mode != "paper" {
		return fmt.Errorf("trading.mode must be 'live' or 'paper', got %q", c.Trading.Mode)
	}
	if !models.RiskLevel(c.Strategy.RiskLevel).Valid() {
		return fmt.Errorf("strategy.risk_level must be conservative, moderate, or aggressive, got %q", c.Strategy.RiskLevel)
	}
	if c.Strategy.ProfitTargetPct <= 0 {
		return fmt.Errorf("strategy.profit_target_percentage must be positive")
	}
	if c.Strategy.StopLossPct <= 0 {
		return fmt.Errorf("strategy.stop_loss_percentage must be positive")
	}
	if c.Strategy.TargetExpiryDays < 7 {
		return fmt.Errorf("strategy.options_expiry_days must be at least 7")
	}
	return nil
}
