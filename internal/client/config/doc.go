// Package config loads runtime configuration for the beanfeed client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file named by --config or $BEANFEED_CONFIG; JSON,
//     YAML or TOML by extension.
//  3. Command-line flags that were set explicitly.
//
// # File schema
//
// Durations may be strings like "10s" or integer nanoseconds:
//
//	server_url: http://127.0.0.1:8080/api/profiles
//	access_token: eyJhbGciOi...
//	compression: zstd
//	style: full
//	parallelism: 8
//	timeout: 10s
package config
