package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{orig[0]}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestParseJson_OverlaysOnlyProvidedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"secret_key": "json-secret",
		"session_ttl": "12h",
		"s3_bucket": "statements"
	}`), 0o600))

	withArgs(t, "-c", path)

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, "json-secret", c.SecretKey)
	assert.Equal(t, 12*time.Hour, c.SessionTTL)
	assert.Equal(t, "statements", c.S3Bucket)

	// Untouched fields keep their defaults.
	assert.Equal(t, "ledgerhouse.db", c.LedgerPath)
	assert.Equal(t, 168*time.Hour, c.VacuumRetention)
}

func TestParseJson_NoFlagDoesNothing(t *testing.T) {
	withArgs(t)

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, DefaultSecretKey, c.SecretKey)
}

func TestParseJson_MissingFilePanics(t *testing.T) {
	withArgs(t, "-c", filepath.Join(t.TempDir(), "nope.json"))

	var c Config
	c.LoadDefaults()
	assert.Panics(t, func() { parseJson(&c) })
}

func TestParseJson_InvalidJsonPanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"secret_key": `), 0o600))

	withArgs(t, "-c", path)

	var c Config
	c.LoadDefaults()
	assert.Panics(t, func() { parseJson(&c) })
}
