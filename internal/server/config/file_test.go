package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/flagx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	full := &Config{
		EndpointAddr:                ":9000",
		DatabaseDSN:                 "postgres://u:p@db:5432/beans",
		SecretKey:                   "my_secret_key",
		AccessTokenValidityDuration: 90 * time.Minute,
		Compression:                 "zstd",
		MaxBodyBytes:                2048,
		PrincipalHeader:             "X-Principal",
		LogLevel:                    "warn",
	}

	files := map[string]string{
		"server.json": `{
			"endpoint_addr": ":9000",
			"database_dsn": "postgres://u:p@db:5432/beans",
			"secret_key": "my_secret_key",
			"access_token_validity_duration": "90m",
			"compression": "zstd",
			"max_body_bytes": 2048,
			"principal_header": "X-Principal",
			"log_level": "warn"
		}`,
		"server.yaml": `endpoint_addr: ":9000"
database_dsn: "postgres://u:p@db:5432/beans"
secret_key: my_secret_key
access_token_validity_duration: 90m
compression: zstd
max_body_bytes: 2048
principal_header: X-Principal
log_level: warn
`,
		"server.toml": `endpoint_addr = ":9000"
database_dsn = "postgres://u:p@db:5432/beans"
secret_key = "my_secret_key"
access_token_validity_duration = "90m"
compression = "zstd"
max_body_bytes = 2048
principal_header = "X-Principal"
log_level = "warn"
`,
	}

	for name, body := range files {
		t.Run("loads "+name, func(t *testing.T) {
			t.Setenv(flagx.ConfigEnv, "")
			os.Args = []string{"testbin", "-config", writeTemp(t, name, body)}

			cfg := &Config{}
			parseFile(cfg)
			assert.Equal(t, full, cfg)
		})
	}

	t.Run("environment names the file", func(t *testing.T) {
		t.Setenv(flagx.ConfigEnv, writeTemp(t, "env.yaml", "secret_key: from-env\n"))
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddr: ":1"}
		parseFile(cfg)
		assert.Equal(t, "from-env", cfg.SecretKey)
		assert.Equal(t, ":1", cfg.EndpointAddr)
	})

	t.Run("no file leaves config untouched", func(t *testing.T) {
		t.Setenv(flagx.ConfigEnv, "")
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddr: "defaults:1234", MaxBodyBytes: 7}
		parseFile(cfg)
		assert.Equal(t, &Config{EndpointAddr: "defaults:1234", MaxBodyBytes: 7}, cfg)
	})

	t.Run("invalid file panics", func(t *testing.T) {
		t.Setenv(flagx.ConfigEnv, "")
		os.Args = []string{"testbin", "-c", writeTemp(t, "bad.json", `{"endpoint_addr":`)}
		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		t.Setenv(flagx.ConfigEnv, "")
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "none.yaml")}
		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
