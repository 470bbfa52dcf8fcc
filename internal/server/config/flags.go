package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   database DSN
//	-s string   bearer token HMAC secret
//	-t int      access token validity, minutes
//	-z string   preferred response compression
//	-m int      max request body bytes
//	-H string   trusted principal header
//	-l string   log level
//
// os.Args is filtered down to these flags first, so the config file flags
// do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-z", "-m", "-H", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	fs.StringVar(&config.Compression, "z", config.Compression, "preferred response compression")
	fs.Int64Var(&config.MaxBodyBytes, "m", config.MaxBodyBytes, "max request body bytes")
	fs.StringVar(&config.PrincipalHeader, "H", config.PrincipalHeader, "trusted principal header")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		}
	})
}
