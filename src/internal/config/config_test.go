// FILE: logfan/src/internal/config/config_test.go
package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	assert.Equal(t, "logfan", cfg.Service.Name)
	assert.True(t, cfg.Service.CallProcessExit)

	assert.True(t, cfg.Console.Enabled)
	assert.Equal(t, "stdout", cfg.Console.Target)

	assert.False(t, cfg.File.Enabled)
	assert.Equal(t, "logfan", cfg.File.Basename)
	assert.Equal(t, float64(10), cfg.File.MaxSizeMB)

	assert.False(t, cfg.Pipe.Enabled)
	assert.False(t, cfg.TCP.Enabled)
	assert.False(t, cfg.HTTP.Enabled)

	require.NoError(t, cfg.validate(), "defaults must validate")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaults() }

	testCases := []struct {
		name     string
		mutate   func(*Config)
		errMatch string
	}{
		{
			name:     "EmptyServiceName",
			mutate:   func(c *Config) { c.Service.Name = "" },
			errMatch: "service name",
		},
		{
			name:     "NoSinksEnabled",
			mutate:   func(c *Config) { c.Console.Enabled = false },
			errMatch: "no sinks enabled",
		},
		{
			name:     "ConsoleBadTarget",
			mutate:   func(c *Config) { c.Console.Target = "printer" },
			errMatch: "console: invalid target",
		},
		{
			name:     "ConsoleBadLevel",
			mutate:   func(c *Config) { c.Console.MinLevel = "loud" },
			errMatch: "unknown log level",
		},
		{
			name: "FileEmptyDirectory",
			mutate: func(c *Config) {
				c.File.Enabled = true
				c.File.Directory = ""
			},
			errMatch: "file: directory",
		},
		{
			name: "FileBasenameWithSeparator",
			mutate: func(c *Config) {
				c.File.Enabled = true
				c.File.Basename = "logs/app"
			},
			errMatch: "path separators",
		},
		{
			name: "FileZeroMaxSize",
			mutate: func(c *Config) {
				c.File.Enabled = true
				c.File.MaxSizeMB = 0
			},
			errMatch: "max_size_mb",
		},
		{
			name: "PipeEmptyPath",
			mutate: func(c *Config) {
				c.Pipe.Enabled = true
				c.Pipe.Path = ""
			},
			errMatch: "pipe: path",
		},
		{
			name: "TCPBadPort",
			mutate: func(c *Config) {
				c.TCP.Enabled = true
				c.TCP.Port = 0
			},
			errMatch: "tcp: invalid port",
		},
		{
			name: "TCPPortTooHigh",
			mutate: func(c *Config) {
				c.TCP.Enabled = true
				c.TCP.Port = 70000
			},
			errMatch: "tcp: invalid port",
		},
		{
			name: "HTTPBadURL",
			mutate: func(c *Config) {
				c.HTTP.Enabled = true
				c.HTTP.URL = "ftp://example.com"
			},
			errMatch: "http: url",
		},
		{
			name: "HTTPBadBackoff",
			mutate: func(c *Config) {
				c.HTTP.Enabled = true
				c.HTTP.URL = "http://collector:8080/logs"
				c.HTTP.RetryBackoff = 0.5
			},
			errMatch: "retry_backoff",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMatch)
		})
	}

	t.Run("DisabledSectionsSkipValidation", func(t *testing.T) {
		cfg := valid()
		cfg.TCP.Port = 0 // invalid, but the sink is disabled
		cfg.HTTP.URL = "not a url"
		assert.NoError(t, cfg.validate())
	})

	t.Run("AllSinksEnabled", func(t *testing.T) {
		cfg := valid()
		cfg.File.Enabled = true
		cfg.Pipe.Enabled = true
		cfg.Pipe.Path = "/run/logfan.fifo"
		cfg.TCP.Enabled = true
		cfg.HTTP.Enabled = true
		cfg.HTTP.URL = "https://collector.example.com/ingest"
		assert.NoError(t, cfg.validate())
	})
}

func TestGetConfigPath(t *testing.T) {
	t.Run("AbsoluteConfigFile", func(t *testing.T) {
		t.Setenv("LOGFAN_CONFIG_FILE", "/etc/logfan/custom.toml")
		t.Setenv("LOGFAN_CONFIG_DIR", "/ignored")
		assert.Equal(t, "/etc/logfan/custom.toml", GetConfigPath())
	})

	t.Run("RelativeFileJoinsDir", func(t *testing.T) {
		t.Setenv("LOGFAN_CONFIG_FILE", "custom.toml")
		t.Setenv("LOGFAN_CONFIG_DIR", "/etc/logfan")
		assert.Equal(t, filepath.Join("/etc/logfan", "custom.toml"), GetConfigPath())
	})

	t.Run("DirAlone", func(t *testing.T) {
		t.Setenv("LOGFAN_CONFIG_FILE", "")
		t.Setenv("LOGFAN_CONFIG_DIR", "/etc/logfan")
		assert.Equal(t, filepath.Join("/etc/logfan", "logfan.toml"), GetConfigPath())
	})

	t.Run("FallsBackToHome", func(t *testing.T) {
		t.Setenv("LOGFAN_CONFIG_FILE", "")
		t.Setenv("LOGFAN_CONFIG_DIR", "")
		path := GetConfigPath()
		assert.True(t, filepath.IsAbs(path) || path == "logfan.toml")
		assert.Contains(t, path, "logfan.toml")
	})
}

func TestCustomEnvTransform(t *testing.T) {
	assert.Equal(t, "LOGFAN_FILE_MAX_SIZE_MB", customEnvTransform("file.max_size_mb"))
	assert.Equal(t, "LOGFAN_SERVICE_NAME", customEnvTransform("service.name"))
}
