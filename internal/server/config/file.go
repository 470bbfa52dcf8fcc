package config

import (
	"github.com/dmitrijs2005/beanfeed/internal/configx"
	"github.com/dmitrijs2005/beanfeed/internal/flagx"
	"github.com/dmitrijs2005/beanfeed/internal/timex"
)

// FileConfig is the on-disk shape of Config. Durations accept "90m" as well
// as integer nanoseconds.
type FileConfig struct {
	EndpointAddr                string         `json:"endpoint_addr" yaml:"endpoint_addr" toml:"endpoint_addr"`
	DatabaseDSN                 string         `json:"database_dsn" yaml:"database_dsn" toml:"database_dsn"`
	SecretKey                   string         `json:"secret_key" yaml:"secret_key" toml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration" toml:"access_token_validity_duration"`
	Compression                 string         `json:"compression" yaml:"compression" toml:"compression"`
	MaxBodyBytes                int64          `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	PrincipalHeader             string         `json:"principal_header" yaml:"principal_header" toml:"principal_header"`
	LogLevel                    string         `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// parseFile overlays config with the file named by -c/-config or
// $BEANFEED_CONFIG. Keys absent from the file keep their current value.
// An unreadable or invalid file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	var fc FileConfig
	if err := configx.DecodeFile(path, &fc); err != nil {
		panic(err)
	}

	if fc.EndpointAddr != "" {
		config.EndpointAddr = fc.EndpointAddr
	}
	if fc.DatabaseDSN != "" {
		config.DatabaseDSN = fc.DatabaseDSN
	}
	if fc.SecretKey != "" {
		config.SecretKey = fc.SecretKey
	}
	if fc.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.Compression != "" {
		config.Compression = fc.Compression
	}
	if fc.MaxBodyBytes != 0 {
		config.MaxBodyBytes = fc.MaxBodyBytes
	}
	if fc.PrincipalHeader != "" {
		config.PrincipalHeader = fc.PrincipalHeader
	}
	if fc.LogLevel != "" {
		config.LogLevel = fc.LogLevel
	}
}
