package config

import "fmt"

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether the server runs in release mode. Attestation
// and receipt encryption fail closed in this mode.
func (s *ServerConfig) IsProduction() bool {
	return s.Mode == "release"
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AttestationConfig holds the vendor device-attestation verification settings.
// When VerifyURL or APIKey is empty the gate is considered unconfigured.
type AttestationConfig struct {
	VerifyURL      string `mapstructure:"verify_url"`
	APIKey         string `mapstructure:"api_key"`
	BundleID       string `mapstructure:"bundle_id"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (a *AttestationConfig) IsConfigured() bool {
	return a.VerifyURL != "" && a.APIKey != ""
}

// AppStoreConfig holds platform purchase verification settings.
// RootCertPath points at the platform root CA used to anchor the x5c chain of
// signed transactions. ReceiptKey is the base64 32-byte key that encrypts raw
// receipts at rest.
type AppStoreConfig struct {
	RootCertPath string         `mapstructure:"root_cert_path"`
	Environment  string         `mapstructure:"environment"`
	ReceiptKey   string         `mapstructure:"receipt_key"`
	Products     map[string]int `mapstructure:"products"`
}

// AnalysisConfig holds the external analysis service settings.
type AnalysisConfig struct {
	URL            string `mapstructure:"url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CreditsConfig controls the credit ledger behavior.
type CreditsConfig struct {
	FreeLimit              int `mapstructure:"free_limit"`
	ReservationHoldMinutes int `mapstructure:"reservation_hold_minutes"`
}

// AbuseLimitConfig controls the secondary per-key usage counter. It blunts
// volumetric abuse independently of the credit balance and is never the
// source of truth for billing.
type AbuseLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	RequestsPerHour   int `mapstructure:"requests_per_hour"`
	RequestsPerDay    int `mapstructure:"requests_per_day"`
}
