package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/chestkeeper/internal/flagx"
	"github.com/dmitrijs2005/chestkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON configuration file.
// Durations accept both "10s"-style strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	DatabaseDSN           string         `json:"database_dsn"`
	UnverifiedTokenTTL    timex.Duration `json:"unverified_token_ttl"`
	SessionServerURL      string         `json:"session_server_url"`
	AuthorityTimeout      timex.Duration `json:"authority_timeout"`
	SerializeVerification *bool          `json:"serialize_verification"`
	ShutdownTimeout       timex.Duration `json:"shutdown_timeout"`
	NewTokenRate          *float64       `json:"newtoken_rate"`
	NewTokenBurst         int            `json:"newtoken_burst"`
	TrustedProxies        []string       `json:"trusted_proxies"`
}

// parseJson loads the file named by -c/-config, if any, into config.
// Only keys present in the file override existing values. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.UnverifiedTokenTTL.Duration != 0 {
		config.UnverifiedTokenTTL = c.UnverifiedTokenTTL.Duration
	}
	if c.SessionServerURL != "" {
		config.SessionServerURL = c.SessionServerURL
	}
	if c.AuthorityTimeout.Duration != 0 {
		config.AuthorityTimeout = c.AuthorityTimeout.Duration
	}
	if c.SerializeVerification != nil {
		config.SerializeVerification = *c.SerializeVerification
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.NewTokenRate != nil {
		config.NewTokenRate = *c.NewTokenRate
	}
	if c.NewTokenBurst != 0 {
		config.NewTokenBurst = c.NewTokenBurst
	}
	if c.TrustedProxies != nil {
		config.TrustedProxies = c.TrustedProxies
	}
}
