package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/fredylg/ReefBuddy-sub001/internal/shared/config"
)

type Config struct {
	Server      sharedConfig.ServerConfig      `mapstructure:"server"`
	Database    sharedConfig.DatabaseConfig    `mapstructure:"database"`
	Logger      sharedConfig.LoggerConfig      `mapstructure:"logger"`
	Redis       sharedConfig.RedisConfig       `mapstructure:"redis"`
	Attestation sharedConfig.AttestationConfig `mapstructure:"attestation"`
	AppStore    sharedConfig.AppStoreConfig    `mapstructure:"appstore"`
	Analysis    sharedConfig.AnalysisConfig    `mapstructure:"analysis"`
	Credits     sharedConfig.CreditsConfig     `mapstructure:"credits"`
	AbuseLimit  sharedConfig.AbuseLimitConfig  `mapstructure:"abuse_limit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("REEFBUDDY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "reefbuddy_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Attestation defaults (empty by default, must be configured for production)
	viper.SetDefault("attestation.verify_url", "")
	viper.SetDefault("attestation.api_key", "")
	viper.SetDefault("attestation.bundle_id", "")
	viper.SetDefault("attestation.timeout_seconds", 10)

	// App Store defaults
	viper.SetDefault("appstore.root_cert_path", "")
	viper.SetDefault("appstore.environment", "production")
	viper.SetDefault("appstore.receipt_key", "")
	viper.SetDefault("appstore.products", map[string]int{
		"com.reefbuddy.credits.5":  5,
		"com.reefbuddy.credits.50": 50,
	})

	// Analysis service defaults
	viper.SetDefault("analysis.url", "")
	viper.SetDefault("analysis.api_key", "")
	viper.SetDefault("analysis.timeout_seconds", 30)

	// Credit ledger defaults
	viper.SetDefault("credits.free_limit", 3)
	viper.SetDefault("credits.reservation_hold_minutes", 5)

	// Abuse limiter defaults
	viper.SetDefault("abuse_limit.requests_per_minute", 6)
	viper.SetDefault("abuse_limit.requests_per_hour", 30)
	viper.SetDefault("abuse_limit.requests_per_day", 100)
}
