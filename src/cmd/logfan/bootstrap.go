// FILE: src/cmd/logfan/bootstrap.go
package main

import (
	"fmt"
	"strings"
	"time"

	"logfan/src/internal/config"
	"logfan/src/internal/core"
	"logfan/src/internal/dispatch"
	"logfan/src/internal/format"
	"logfan/src/internal/redact"
	"logfan/src/internal/sink"
	"logfan/src/internal/source"
	"logfan/src/internal/version"

	"github.com/lixenwraith/log"
)

// bootstrap builds the sink set, the dispatcher over it, and the stdin
// source feeding it
func bootstrap(cfg *config.Config) (*dispatch.Dispatcher, *source.StdinSource, error) {
	sinks, err := buildSinks(cfg)
	if err != nil {
		return nil, nil, err
	}

	var redactFn dispatch.RedactFunc
	if len(cfg.Redact.Keys) > 0 {
		redactFn = redact.Func(cfg.Redact.Keys...)
		logger.Info("msg", "Redaction enabled",
			"keys", len(cfg.Redact.Keys))
	}

	callExit := cfg.Service.CallProcessExit
	dispatcher := dispatch.New(dispatch.Config{
		Sinks:           sinks,
		ServiceName:     cfg.Service.Name,
		Redact:          redactFn,
		CallProcessExit: &callExit,
		Logger:          logger,
	})

	src := source.NewStdinSource(core.DefaultBufferSize, logger)

	logger.Info("msg", "logfan started",
		"version", version.Short(),
		"sinks", len(sinks))

	return dispatcher, src, nil
}

// buildSinks constructs every enabled sink in a fixed fan-out order:
// console, file, pipe, tcp, http
func buildSinks(cfg *config.Config) ([]sink.Sink, error) {
	var sinks []sink.Sink

	if cfg.Console.Enabled {
		formatter, err := format.New("plain")
		if err != nil {
			return nil, err
		}
		s, err := sink.NewConsoleSink(sink.ConsoleConfig{
			Target:   cfg.Console.Target,
			Color:    cfg.Console.Color,
			MinLevel: minLevel(cfg.Console.MinLevel),
		}, formatter, nil, logger)
		if err != nil {
			return nil, fmt.Errorf("console sink: %w", err)
		}
		sinks = append(sinks, s)
	}

	if cfg.File.Enabled {
		s, err := sink.NewFileSink(sink.FileConfig{
			LogDir:       cfg.File.Directory,
			Basename:     cfg.File.Basename,
			MaxSizeMB:    cfg.File.MaxSizeMB,
			JSONFormat:   cfg.File.JSON,
			MaxRetries:   cfg.File.MaxRetries,
			CloseTimeout: time.Duration(cfg.File.CloseTimeoutMS) * time.Millisecond,
			MinLevel:     minLevel(cfg.File.MinLevel),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("file sink: %w", err)
		}
		sinks = append(sinks, s)
	}

	if cfg.Pipe.Enabled {
		s, err := sink.NewPipeSink(sink.PipeConfig{
			Path:         cfg.Pipe.Path,
			JSONFormat:   cfg.Pipe.JSON,
			CloseTimeout: time.Duration(cfg.Pipe.CloseTimeoutMS) * time.Millisecond,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("pipe sink: %w", err)
		}
		sinks = append(sinks, s)
	}

	if cfg.TCP.Enabled {
		s, err := sink.NewTCPSink(sink.TCPConfig{
			Host:           cfg.TCP.Host,
			Port:           cfg.TCP.Port,
			BufferSize:     cfg.TCP.BufferSize,
			JSONFormat:     cfg.TCP.JSON,
			MinLevel:       minLevel(cfg.TCP.MinLevel),
			Heartbeat:      time.Duration(cfg.TCP.HeartbeatMS) * time.Millisecond,
			HeartbeatStats: cfg.TCP.HeartbeatStats,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("tcp sink: %w", err)
		}
		sinks = append(sinks, s)
	}

	if cfg.HTTP.Enabled {
		s, err := sink.NewHTTPClientSink(sink.HTTPConfig{
			URL:                cfg.HTTP.URL,
			BufferSize:         cfg.HTTP.BufferSize,
			BatchSize:          cfg.HTTP.BatchSize,
			BatchDelay:         time.Duration(cfg.HTTP.BatchDelayMS) * time.Millisecond,
			Timeout:            time.Duration(cfg.HTTP.TimeoutSec) * time.Second,
			MaxRetries:         cfg.HTTP.MaxRetries,
			RetryDelay:         time.Duration(cfg.HTTP.RetryDelayMS) * time.Millisecond,
			RetryBackoff:       cfg.HTTP.RetryBackoff,
			InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
			PlainFormat:        cfg.HTTP.Plain,
			MinLevel:           minLevel(cfg.HTTP.MinLevel),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("http sink: %w", err)
		}
		sinks = append(sinks, s)
	}

	return sinks, nil
}

// Validation has already run, unknown strings mean the default
func minLevel(s string) core.Level {
	if s == "" {
		return core.LevelDebug
	}
	lvl, err := core.ParseLevel(s)
	if err != nil {
		return core.LevelDebug
	}
	return lvl
}

// initializeLogger sets up the operational logger from configuration
func initializeLogger(cfg *config.Config, flagCfg *FlagConfig) error {
	logger = log.NewLogger()

	var configArgs []string

	if flagCfg.Quiet {
		// In quiet mode, disable ALL logging output
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255")

		return logger.InitWithDefaults(configArgs...)
	}

	levelValue, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	switch cfg.Logging.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")

	case "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configureFileLogging(&configArgs, cfg)

	case "both":
		configArgs = append(configArgs, "enable_stdout=true")
		configureFileLogging(&configArgs, cfg)
		configureConsoleTarget(&configArgs, cfg)

	default:
		return fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	if cfg.Logging.Console != nil && cfg.Logging.Console.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Logging.Console.Format))
	}

	return logger.InitWithDefaults(configArgs...)
}

// configureFileLogging sets up file-based logging parameters
func configureFileLogging(configArgs *[]string, cfg *config.Config) {
	if cfg.Logging.File != nil {
		*configArgs = append(*configArgs,
			fmt.Sprintf("directory=%s", cfg.Logging.File.Directory),
			fmt.Sprintf("name=%s", cfg.Logging.File.Name),
			fmt.Sprintf("max_size_mb=%d", cfg.Logging.File.MaxSizeMB),
			fmt.Sprintf("max_total_size_mb=%d", cfg.Logging.File.MaxTotalSizeMB))

		if cfg.Logging.File.RetentionHours > 0 {
			*configArgs = append(*configArgs,
				fmt.Sprintf("retention_period_hrs=%.1f", cfg.Logging.File.RetentionHours))
		}
	}
}

// configureConsoleTarget sets up console output parameters
func configureConsoleTarget(configArgs *[]string, cfg *config.Config) {
	target := "stderr" // default

	if cfg.Logging.Console != nil && cfg.Logging.Console.Target != "" {
		target = cfg.Logging.Console.Target
	}

	if target == "split" {
		*configArgs = append(*configArgs, "stdout_split_mode=true")
		*configArgs = append(*configArgs, "stdout_target=split")
	} else {
		*configArgs = append(*configArgs, fmt.Sprintf("stdout_target=%s", target))
	}
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
