// FILE: src/internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

type Config struct {
	Service ServiceConfig `toml:"service"`
	Logging LogConfig     `toml:"logging"`

	Console ConsoleSinkOptions `toml:"console"`
	File    FileSinkOptions    `toml:"file"`
	Pipe    PipeSinkOptions    `toml:"pipe"`
	TCP     TCPSinkOptions     `toml:"tcp"`
	HTTP    HTTPSinkOptions    `toml:"http"`

	Redact RedactConfig `toml:"redact"`
}

type ServiceConfig struct {
	// Stamped onto every entry that does not carry a service name
	Name string `toml:"name"`

	// Terminate the process when an entry carrying an exit code has
	// been delivered
	CallProcessExit bool `toml:"call_process_exit"`
}

type RedactConfig struct {
	// Dotted parameter paths replaced before delivery
	Keys []string `toml:"keys"`
}

func defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:            "logfan",
			CallProcessExit: true,
		},
		Logging: *DefaultLogConfig(),
		Console: ConsoleSinkOptions{
			Enabled:  true,
			Target:   "stdout",
			MinLevel: "debug",
		},
		File: FileSinkOptions{
			Enabled:        false,
			Directory:      "./log",
			Basename:       "logfan",
			MaxSizeMB:      10,
			MaxRetries:     3,
			CloseTimeoutMS: 30000,
			MinLevel:       "debug",
		},
		Pipe: PipeSinkOptions{
			Enabled:        false,
			CloseTimeoutMS: 30000,
		},
		TCP: TCPSinkOptions{
			Enabled:    false,
			Host:       "0.0.0.0",
			Port:       9090,
			BufferSize: 1000,
			JSON:       true,
		},
		HTTP: HTTPSinkOptions{
			Enabled:      false,
			BufferSize:   1000,
			BatchSize:    100,
			BatchDelayMS: 1000,
			TimeoutSec:   30,
			MaxRetries:   3,
			RetryDelayMS: 1000,
			RetryBackoff: 2.0,
		},
	}
}

func LoadWithCLI(cliArgs []string) (*Config, error) {
	configPath := GetConfigPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix("LOGFAN_").
		WithFile(configPath).
		WithArgs(cliArgs).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig, ""); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	return finalConfig, finalConfig.validate()
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = "LOGFAN_" + env
	return env
}

func GetConfigPath() string {
	if configFile := os.Getenv("LOGFAN_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("LOGFAN_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv("LOGFAN_CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "logfan.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "logfan.toml")
	}

	return "logfan.toml"
}

func (c *Config) validate() error {
	if err := lconfig.NonEmpty(c.Service.Name); err != nil {
		return fmt.Errorf("service name cannot be empty")
	}

	if err := validateLogConfig(&c.Logging); err != nil {
		return err
	}

	if err := c.Console.validate(); err != nil {
		return err
	}
	if err := c.File.validate(); err != nil {
		return err
	}
	if err := c.Pipe.validate(); err != nil {
		return err
	}
	if err := c.TCP.validate(); err != nil {
		return err
	}
	if err := c.HTTP.validate(); err != nil {
		return err
	}

	if !c.Console.Enabled && !c.File.Enabled && !c.Pipe.Enabled &&
		!c.TCP.Enabled && !c.HTTP.Enabled {
		return fmt.Errorf("no sinks enabled")
	}

	return nil
}
