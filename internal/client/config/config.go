package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/configx"
	"github.com/dmitrijs2005/beanfeed/internal/flagx"
	"github.com/dmitrijs2005/beanfeed/internal/timex"
	"github.com/dmitrijs2005/beanfeed/internal/transport"
	"github.com/spf13/pflag"
)

// Config holds runtime settings for the client CLI.
type Config struct {
	ServerURL   string
	AccessToken string
	Compression string
	Style       string
	Parallelism int
	Timeout     time.Duration
}

// LoadDefaults populates c with defaults for a local server.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080/api/profiles"
	c.AccessToken = ""
	c.Compression = string(transport.Identity)
	c.Style = bean.Full.String()
	c.Parallelism = 4
	c.Timeout = 30 * time.Second
}

// Validate checks the values the proxy cannot accept.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server url is required")
	}
	if _, err := transport.ParseEncoding(c.Compression); err != nil {
		return err
	}
	if _, err := bean.ParseStyle(c.Style); err != nil {
		return err
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be positive, got %d", c.Parallelism)
	}
	return nil
}

type fileConfig struct {
	ServerURL   string         `json:"server_url" yaml:"server_url" toml:"server_url"`
	AccessToken string         `json:"access_token" yaml:"access_token" toml:"access_token"`
	Compression string         `json:"compression" yaml:"compression" toml:"compression"`
	Style       string         `json:"style" yaml:"style" toml:"style"`
	Parallelism int            `json:"parallelism" yaml:"parallelism" toml:"parallelism"`
	Timeout     timex.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
}

// overlayFile applies the non-empty values of the file at path.
func (c *Config) overlayFile(path string) error {
	var fc fileConfig
	if err := configx.DecodeFile(path, &fc); err != nil {
		return err
	}
	if fc.ServerURL != "" {
		c.ServerURL = fc.ServerURL
	}
	if fc.AccessToken != "" {
		c.AccessToken = fc.AccessToken
	}
	if fc.Compression != "" {
		c.Compression = fc.Compression
	}
	if fc.Style != "" {
		c.Style = fc.Style
	}
	if fc.Parallelism != 0 {
		c.Parallelism = fc.Parallelism
	}
	if fc.Timeout.Duration != 0 {
		c.Timeout = fc.Timeout.Duration
	}
	return nil
}

// Flag names registered by RegisterFlags.
const (
	FlagConfig      = "config"
	FlagServer      = "server"
	FlagToken       = "token"
	FlagCompression = "compression"
	FlagStyle       = "style"
	FlagParallelism = "parallelism"
	FlagTimeout     = "timeout"
)

// RegisterFlags declares the client flags on fs. Defaults shown in help
// are the built-in ones; Load only applies flags the user set.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "config file (json, yaml or toml)")
	fs.StringP(FlagServer, "a", d.ServerURL, "resource URL")
	fs.StringP(FlagToken, "t", "", "bearer token")
	fs.StringP(FlagCompression, "z", d.Compression, "request compression")
	fs.String(FlagStyle, d.Style, "representation style to read")
	fs.IntP(FlagParallelism, "p", d.Parallelism, "concurrent requests for batch --each")
	fs.Duration(FlagTimeout, d.Timeout, "request timeout")
}

// Load builds a Config from defaults, the config file and the flags in fs
// that were changed, in that order.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = os.Getenv(flagx.ConfigEnv)
	}
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	var flagErr error
	fs.Visit(func(f *pflag.Flag) {
		if flagErr != nil {
			return
		}
		switch f.Name {
		case FlagServer:
			cfg.ServerURL, flagErr = fs.GetString(FlagServer)
		case FlagToken:
			cfg.AccessToken, flagErr = fs.GetString(FlagToken)
		case FlagCompression:
			cfg.Compression, flagErr = fs.GetString(FlagCompression)
		case FlagStyle:
			cfg.Style, flagErr = fs.GetString(FlagStyle)
		case FlagParallelism:
			cfg.Parallelism, flagErr = fs.GetInt(FlagParallelism)
		case FlagTimeout:
			cfg.Timeout, flagErr = fs.GetDuration(FlagTimeout)
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
