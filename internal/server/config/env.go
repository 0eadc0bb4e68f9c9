package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/chestkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names understood by parseEnv.
const (
	EnvEndpointAddrHTTP      = "CHESTKEEPER_ADDR"
	EnvDatabaseDSN           = "CHESTKEEPER_DATABASE_DSN"
	EnvUnverifiedTokenTTL    = "CHESTKEEPER_TOKEN_TTL"
	EnvSessionServerURL      = "CHESTKEEPER_SESSION_SERVER_URL"
	EnvAuthorityTimeout      = "CHESTKEEPER_AUTHORITY_TIMEOUT"
	EnvSerializeVerification = "CHESTKEEPER_SERIALIZE_VERIFICATION"
	EnvShutdownTimeout       = "CHESTKEEPER_SHUTDOWN_TIMEOUT"
	EnvNewTokenRate          = "CHESTKEEPER_NEWTOKEN_RATE"
	EnvNewTokenBurst         = "CHESTKEEPER_NEWTOKEN_BURST"
	EnvTrustedProxies        = "CHESTKEEPER_TRUSTED_PROXIES"
)

// parseEnv overlays Config with CHESTKEEPER_* environment variables.
//
// A dotenv file named by -env is loaded first and must exist; without the
// flag a ./.env file is loaded if present. Variables already set in the
// process environment take precedence over dotenv entries. Malformed
// numbers, durations or booleans panic, as a broken config file does.
func parseEnv(config *Config) {
	if file := flagx.EnvFileFlags(); file != "" {
		if err := godotenv.Load(file); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	if v, ok := os.LookupEnv(EnvEndpointAddrHTTP); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv(EnvDatabaseDSN); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(EnvSessionServerURL); ok {
		config.SessionServerURL = v
	}
	envDuration(EnvUnverifiedTokenTTL, &config.UnverifiedTokenTTL)
	envDuration(EnvAuthorityTimeout, &config.AuthorityTimeout)
	envDuration(EnvShutdownTimeout, &config.ShutdownTimeout)

	if v, ok := os.LookupEnv(EnvSerializeVerification); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.SerializeVerification = b
	}

	if v, ok := os.LookupEnv(EnvNewTokenRate); ok {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.NewTokenRate = r
	}
	if v, ok := os.LookupEnv(EnvNewTokenBurst); ok {
		b, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.NewTokenBurst = b
	}
	if v, ok := os.LookupEnv(EnvTrustedProxies); ok {
		config.TrustedProxies = splitList(v)
	}
}

// splitList parses a comma-separated list, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envDuration(name string, dst *time.Duration) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
