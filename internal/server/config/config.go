// Package config handles configuration for the server component, including
// defaults, JSON overlay, environment variables, and command-line flags.
package config

import (
	"os"
	"time"
)

// DefaultSecretKey is the development token-signing secret. It is insecure
// by definition and must be overridden in production via flag, JSON config,
// or the LEDGERHOUSE_SECRET_KEY environment variable.
const DefaultSecretKey = "ledgerhouse-default-secret-change-me"

// Config holds runtime settings for the ledgerhouse server.
//
// Fields:
//   - LedgerPath: SQLite ledger file, used when DatabaseDSN is empty.
//   - DatabaseDSN: PostgreSQL DSN (pgx); overrides LedgerPath when set.
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - SessionTTL: default session lifetime; RememberMeTTL applies when the
//     caller logs in with remember-me.
//   - VacuumRetention: how much version history maintenance keeps.
//   - S3*: object storage settings for billing exports.
type Config struct {
	LedgerPath      string
	DatabaseDSN     string
	SecretKey       string
	SessionTTL      time.Duration
	RememberMeTTL   time.Duration
	VacuumRetention time.Duration
	S3RootUser      string
	S3RootPassword  string
	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.LedgerPath = "ledgerhouse.db"
	c.DatabaseDSN = ""
	c.SecretKey = DefaultSecretKey
	c.SessionTTL = 7 * 24 * time.Hour
	c.RememberMeTTL = 30 * 24 * time.Hour
	c.VacuumRetention = 168 * time.Hour
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "exports"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// parseEnv overlays values from the environment. Only the secret key and
// store locations are env-configurable; everything else goes through flags
// or the JSON file.
func parseEnv(c *Config) {
	if v := os.Getenv("LEDGERHOUSE_SECRET_KEY"); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv("LEDGERHOUSE_DATABASE_DSN"); v != "" {
		c.DatabaseDSN = v
	}
	if v := os.Getenv("LEDGERHOUSE_LEDGER_PATH"); v != "" {
		c.LedgerPath = v
	}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment, and finally command-line
// flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
