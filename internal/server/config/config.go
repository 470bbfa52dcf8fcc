// Package config handles configuration for the server component,
// including defaults, a config file overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the beanfeed server.
//
// Fields:
//   - EndpointAddr: bind address of the HTTP endpoint.
//   - DatabaseDSN: "postgres://..." (pgx), "sqlite:<path>" (modernc) or
//     empty for the in-process store.
//   - SecretKey: HMAC secret for bearer tokens (HS256). Do not use the
//     default in prod.
//   - AccessTokenValidityDuration: lifetime of tokens minted by tokengen.
//   - Compression: preferred response coding (zstd, lz4, gzip, identity).
//   - MaxBodyBytes: upper bound for decoded request bodies.
//   - PrincipalHeader: trusted header carrying a principal name; empty
//     disables it.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddr                string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	Compression                 string
	MaxBodyBytes                int64
	PrincipalHeader             string
	LogLevel                    string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 60 * time.Minute
	c.Compression = "gzip"
	c.MaxBodyBytes = 4 << 20
	c.PrincipalHeader = ""
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
