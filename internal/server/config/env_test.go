package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_Variables(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Setenv(EnvEndpointAddrHTTP, "127.0.0.1:9000")
	t.Setenv(EnvDatabaseDSN, "postgres://env")
	t.Setenv(EnvUnverifiedTokenTTL, "15s")
	t.Setenv(EnvSessionServerURL, "http://session.local")
	t.Setenv(EnvAuthorityTimeout, "2s")
	t.Setenv(EnvSerializeVerification, "true")
	t.Setenv(EnvShutdownTimeout, "1m")
	t.Setenv(EnvNewTokenRate, "0")
	t.Setenv(EnvNewTokenBurst, "10")
	t.Setenv(EnvTrustedProxies, "10.0.0.1, 192.168.0.0/16,")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, Config{
		EndpointAddrHTTP:      "127.0.0.1:9000",
		DatabaseDSN:           "postgres://env",
		UnverifiedTokenTTL:    15 * time.Second,
		SessionServerURL:      "http://session.local",
		AuthorityTimeout:      2 * time.Second,
		SerializeVerification: true,
		ShutdownTimeout:       time.Minute,
		NewTokenRate:          0,
		NewTokenBurst:         10,
		TrustedProxies:        []string{"10.0.0.1", "192.168.0.0/16"},
	}, c)
}

func TestParseEnv_DotenvFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "chestkeeper.env")
	require.NoError(t, os.WriteFile(path, []byte("CHESTKEEPER_DATABASE_DSN=postgres://dotenv\n"), 0o600))

	// t.Setenv registers the restore; godotenv.Load then sets the real value.
	t.Setenv(EnvDatabaseDSN, "")
	require.NoError(t, os.Unsetenv(EnvDatabaseDSN))

	os.Args = []string{"testbin", "-env", path}

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "postgres://dotenv", c.DatabaseDSN)
}

func TestParseEnv_MissingDotenvPanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "absent.env")}

	var c Config
	require.Panics(t, func() { parseEnv(&c) })
}

func TestParseEnv_BadValuesPanic(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Run("duration", func(t *testing.T) {
		t.Setenv(EnvUnverifiedTokenTTL, "soon")
		var c Config
		require.Panics(t, func() { parseEnv(&c) })
	})

	t.Run("bool", func(t *testing.T) {
		t.Setenv(EnvSerializeVerification, "maybe")
		var c Config
		require.Panics(t, func() { parseEnv(&c) })
	})

	t.Run("rate", func(t *testing.T) {
		t.Setenv(EnvNewTokenRate, "fast")
		var c Config
		require.Panics(t, func() { parseEnv(&c) })
	})
}
