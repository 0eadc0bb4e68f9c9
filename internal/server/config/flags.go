package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/chestkeeper/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g., ":8000")
//	-d string     PostgreSQL DSN
//	-t duration   unverified token TTL (e.g., "10s")
//	-m string     session server base URL
//	-o duration   session server request timeout
//	-f bool       serialize concurrent verifications of one token
//	-w duration   graceful shutdown timeout
//	-r float      token requests per second per client (0 disables)
//	-b int        token request burst
//
// os.Args is filtered with flagx.FilterArgs first, so flags owned by other
// layers (-c, -env) do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t", "-m", "-o", "-f", "-w", "-r", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.DurationVar(&config.UnverifiedTokenTTL, "t", config.UnverifiedTokenTTL, "unverified token time-to-live")
	fs.StringVar(&config.SessionServerURL, "m", config.SessionServerURL, "session server base URL")
	fs.DurationVar(&config.AuthorityTimeout, "o", config.AuthorityTimeout, "session server request timeout")
	fs.BoolVar(&config.SerializeVerification, "f", config.SerializeVerification, "serialize concurrent verifications of one token")
	fs.DurationVar(&config.ShutdownTimeout, "w", config.ShutdownTimeout, "graceful shutdown timeout")
	fs.Float64Var(&config.NewTokenRate, "r", config.NewTokenRate, "token requests per second per client")
	fs.IntVar(&config.NewTokenBurst, "b", config.NewTokenBurst, "token request burst")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
