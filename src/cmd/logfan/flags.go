// FILE: src/cmd/logfan/flags.go
package main

import (
	"flag"
	"fmt"
	"os"

	"logfan/src/internal/config"
)

// FlagConfig carries CLI-only settings resolved before config loading
type FlagConfig struct {
	ConfigFile  string
	ShowVersion bool
	Quiet       bool

	LogOutput string
	LogLevel  string
	LogDir    string
}

var (
	configFile  = flag.String("config", "", "Config file path")
	showVersion = flag.Bool("version", false, "Show version information")
	quiet       = flag.Bool("quiet", false, "Suppress all non-pipeline output")

	logOutput = flag.String("log-output", "", "Log output: file, stdout, stderr, both, none (overrides config)")
	logLevel  = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	logDir    = flag.String("log-dir", "", "Log directory (when using file output)")
)

func init() {
	flag.Usage = customUsage
}

func customUsage() {
	fmt.Fprintf(os.Stderr, "logfan - Fan-out Log Delivery Pipeline\n\n")
	fmt.Fprintf(os.Stderr, "Reads log lines from stdin and delivers them to the configured\n")
	fmt.Fprintf(os.Stderr, "sinks: console, rotating files, named pipes, TCP streams, HTTP.\n\n")
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")

	fmt.Fprintf(os.Stderr, "\nGeneral:\n")
	fmt.Fprintf(os.Stderr, "  -config string\n\tConfig file path\n")
	fmt.Fprintf(os.Stderr, "  -version\n\tShow version information\n")
	fmt.Fprintf(os.Stderr, "  -quiet\n\tSuppress all non-pipeline output\n")

	fmt.Fprintf(os.Stderr, "\nLogging:\n")
	fmt.Fprintf(os.Stderr, "  -log-output string\n\tLog output: file, stdout, stderr, both, none (overrides config)\n")
	fmt.Fprintf(os.Stderr, "  -log-level string\n\tLog level: debug, info, warn, error (overrides config)\n")
	fmt.Fprintf(os.Stderr, "  -log-dir string\n\tLog directory (when using file output)\n")

	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  # Pipe application output to the default console sink\n")
	fmt.Fprintf(os.Stderr, "  myapp | %s\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "  # Deliver to rotating files and a FIFO\n")
	fmt.Fprintf(os.Stderr, "  myapp | %s --config /etc/logfan.toml\n\n", os.Args[0])

	fmt.Fprintf(os.Stderr, "Environment Variables:\n")
	fmt.Fprintf(os.Stderr, "  LOGFAN_CONFIG_FILE  Config file path\n")
	fmt.Fprintf(os.Stderr, "  LOGFAN_CONFIG_DIR   Config directory\n")
	fmt.Fprintf(os.Stderr, "  LOGFAN_*            Any config key, dots replaced by underscores\n")
}

func parseFlags() (*FlagConfig, error) {
	flag.Parse()

	if *logOutput != "" {
		validOutputs := map[string]bool{
			"file": true, "stdout": true, "stderr": true,
			"both": true, "none": true,
		}
		if !validOutputs[*logOutput] {
			return nil, fmt.Errorf("invalid log-output: %s (valid: file, stdout, stderr, both, none)", *logOutput)
		}
	}

	if *logLevel != "" {
		if _, err := parseLogLevel(*logLevel); err != nil {
			return nil, fmt.Errorf("invalid log-level: %s (valid: debug, info, warn, error)", *logLevel)
		}
	}

	return &FlagConfig{
		ConfigFile:  *configFile,
		ShowVersion: *showVersion,
		Quiet:       *quiet,
		LogOutput:   *logOutput,
		LogLevel:    *logLevel,
		LogDir:      *logDir,
	}, nil
}

// Folds CLI logging overrides into the loaded configuration
func applyFlagOverrides(cfg *config.Config, flagCfg *FlagConfig) {
	if flagCfg.LogOutput != "" {
		cfg.Logging.Output = flagCfg.LogOutput
	}
	if flagCfg.LogLevel != "" {
		cfg.Logging.Level = flagCfg.LogLevel
	}
	if flagCfg.LogDir != "" {
		if cfg.Logging.File == nil {
			cfg.Logging.File = &config.LogFileConfig{}
		}
		cfg.Logging.File.Directory = flagCfg.LogDir
	}
}
