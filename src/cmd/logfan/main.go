// FILE: src/cmd/logfan/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"logfan/src/internal/config"
	"logfan/src/internal/version"

	"github.com/lixenwraith/log"
)

var logger *log.Logger

func main() {
	flagCfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	initOutput(flagCfg.Quiet)

	if flagCfg.ShowVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	if flagCfg.ConfigFile != "" {
		os.Setenv("LOGFAN_CONFIG_FILE", flagCfg.ConfigFile)
	}

	cfg, err := config.LoadWithCLI(os.Args[1:])
	if err != nil {
		fatalError(1, "Failed to load config: %v\n", err)
	}

	applyFlagOverrides(cfg, flagCfg)

	if err := initializeLogger(cfg, flagCfg); err != nil {
		fatalError(1, "Failed to initialize logger: %v\n", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "logfan starting",
		"version", version.String(),
		"config_file", flagCfg.ConfigFile,
		"service", cfg.Service.Name)

	dispatcher, src, err := bootstrap(cfg)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap", "error", err)
		shutdownLogger()
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Forward stdin entries into the dispatcher until the producer
	// closes the stream
	entries := src.Subscribe()
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for entry := range entries {
			dispatcher.Dispatch(entry)
		}
	}()

	if err := src.Start(); err != nil {
		logger.Error("msg", "Failed to start stdin source", "error", err)
		shutdownLogger()
		os.Exit(1)
	}

	select {
	case sig := <-sigChan:
		logger.Info("msg", "Shutdown signal received", "signal", sig.String())
	case <-src.EOF():
		logger.Info("msg", "Input stream ended")
	}

	src.Stop()
	<-forwarded

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		dispatcher.Close(shutdownCtx)
		close(done)
	}()

	select {
	case <-done:
		logger.Info("msg", "Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Error("msg", "Shutdown timeout exceeded - forcing exit")
		shutdownLogger()
		os.Exit(1)
	}
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			printError("Logger shutdown error: %v\n", err)
		}
	}
}
