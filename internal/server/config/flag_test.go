package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags_Overrides(t *testing.T) {
	withArgs(t,
		"-l", "/tmp/ledger.db",
		"-d", "postgres://localhost/ledgerhouse",
		"-s", "flag-secret",
		"-t", "48",
		"-v", "24",
		"-b", "statements",
	)

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, "/tmp/ledger.db", c.LedgerPath)
	assert.Equal(t, "postgres://localhost/ledgerhouse", c.DatabaseDSN)
	assert.Equal(t, "flag-secret", c.SecretKey)
	assert.Equal(t, 48*time.Hour, c.SessionTTL)
	assert.Equal(t, 24*time.Hour, c.VacuumRetention)
	assert.Equal(t, "statements", c.S3Bucket)
}

func TestParseFlags_IgnoresUnrelatedArguments(t *testing.T) {
	withArgs(t, "approve", "u-1", "pioneer", "-s", "flag-secret")

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, "flag-secret", c.SecretKey)
	assert.Equal(t, "ledgerhouse.db", c.LedgerPath)
}
